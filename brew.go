package brewsvc

import (
	"fmt"
	"runtime"
	"time"
)

// brew services wire constants
const (
	// ServicesCommand is the brew subcommand every invocation goes through
	ServicesCommand = "services"

	// ListCommand enumerates managed services
	ListCommand = "list"

	// AllServices is the sentinel target meaning every managed service.
	// It is handed to brew untouched, never expanded locally.
	AllServices = "--all"
)

// Timing defaults
const (
	// DefaultSettleDelay is how long to wait after a successful control
	// before re-polling, so brew has time to finish the state transition
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultCommandTimeout bounds every brew subprocess
	DefaultCommandTimeout = 60 * time.Second

	// DefaultConcurrency is the number of brew subprocesses allowed at once
	DefaultConcurrency = 4

	// DefaultRefreshSpec is the cron spec for periodic polling
	DefaultRefreshSpec = "@every 1m"
)

// Well-known Homebrew prefixes
const (
	// AppleSiliconBrewPath is where Homebrew installs on arm64 macOS
	AppleSiliconBrewPath = "/opt/homebrew/bin/brew"

	// IntelBrewPath is where Homebrew installs on x86_64 macOS
	IntelBrewPath = "/usr/local/bin/brew"

	// LinuxbrewPath is the default Homebrew on Linux prefix
	LinuxbrewPath = "/home/linuxbrew/.linuxbrew/bin/brew"
)

// DefaultBrewCandidates returns the executable search order for the running
// architecture. The most likely install location comes first.
func DefaultBrewCandidates() []string {
	return defaultBrewCandidates(runtime.GOARCH)
}

func defaultBrewCandidates(arch string) []string {
	if arch == "arm64" {
		return []string{AppleSiliconBrewPath, IntelBrewPath, LinuxbrewPath}
	}
	return []string{IntelBrewPath, AppleSiliconBrewPath, LinuxbrewPath}
}

// Operation represents a brew services control operation
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpStart starts a service (brew services start)
	OpStart
	// OpStop stops a service (brew services stop)
	OpStop
	// OpRestart restarts a service (brew services restart)
	OpRestart
	// OpList enumerates services (brew services list)
	OpList
)

// Operation string constants
const (
	opUnknownStr = "unknown"
	opStartStr   = "start"
	opStopStr    = "stop"
	opRestartStr = "restart"
	opListStr    = "list"
)

// String returns the brew subcommand for an Operation
func (op Operation) String() string {
	switch op {
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpRestart:
		return opRestartStr
	case OpList:
		return opListStr
	default:
		return opUnknownStr
	}
}

// IsControl reports whether op mutates service state
func (op Operation) IsControl() bool {
	return op == OpStart || op == OpStop || op == OpRestart
}

// ParseOperation maps a brew subcommand name back to an Operation
func ParseOperation(s string) (Operation, error) {
	switch s {
	case opStartStr:
		return OpStart, nil
	case opStopStr:
		return OpStop, nil
	case opRestartStr:
		return OpRestart, nil
	case opListStr:
		return OpList, nil
	default:
		return OpUnknown, fmt.Errorf("unsupported operation: %q", s)
	}
}

// listArgs returns the argv for enumerating services
func listArgs() []string {
	return []string{ServicesCommand, ListCommand}
}

// controlArgs returns the argv for a mutating call
func controlArgs(op Operation, target string) []string {
	return []string{ServicesCommand, op.String(), target}
}
