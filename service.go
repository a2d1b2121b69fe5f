package brewsvc

// Service states reported by brew services list, lowercased
const (
	StateStarted = "started"
	StateStopped = "stopped"
	StateNone    = "none"
	StateError   = "error"
	StateUnknown = "unknown"
)

// ServiceRecord is one row of brew services list output
type ServiceRecord struct {
	// Name identifies the service; unique within a snapshot
	Name string

	// State is the lowercased status column, StateUnknown when missing
	State string

	// User is the owning user, empty for unattributed services
	User string

	// ConfigPath is the plist/unit file brew reported, valid only if HasConfig
	ConfigPath string

	// HasConfig is true iff brew printed a fourth column
	HasConfig bool
}

// IsStarted reports whether brew considers the service running
func (s ServiceRecord) IsStarted() bool {
	return s.State == StateStarted
}

// IsConfiguredButStopped reports a service that has a config file but is
// not running, which usually means it failed
func (s ServiceRecord) IsConfiguredButStopped() bool {
	return (s.State == StateStopped || s.State == StateNone) && s.HasConfig
}

// Color returns the status color for the service
func (s ServiceRecord) Color() Color {
	switch s.State {
	case StateStarted:
		return ColorActive
	case StateStopped, StateNone:
		if s.IsConfiguredButStopped() {
			return ColorWarning
		}
		return ColorInactive
	default:
		return ColorWarning
	}
}

// EnabledFor reports whether currentUser may act on the service.
// Services owned by another user are shown but not actionable.
func (s ServiceRecord) EnabledFor(currentUser string) bool {
	return s.User == "" || s.User == currentUser
}

// ToggleOperation returns the operation a click on the service should issue
func (s ServiceRecord) ToggleOperation() Operation {
	if s.IsStarted() {
		return OpStop
	}
	return OpStart
}

// Color is the derived status color of a row
type Color int

const (
	// ColorNone is used by rows without a status dot
	ColorNone Color = iota
	// ColorActive marks a running service
	ColorActive
	// ColorInactive marks a stopped service without a config file
	ColorInactive
	// ColorWarning marks failed, errored or unknown services
	ColorWarning
)

// String returns the color name
func (c Color) String() string {
	switch c {
	case ColorActive:
		return "active"
	case ColorInactive:
		return "inactive"
	case ColorWarning:
		return "warning"
	default:
		return "none"
	}
}

// Snapshot is the ordered result of one successful poll
type Snapshot []ServiceRecord

// Names returns service names in snapshot order
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, svc := range s {
		names[i] = svc.Name
	}
	return names
}

// Clone returns a copy that shares nothing with s
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
