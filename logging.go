package brewsvc

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// LogConfig configures the zerolog logger
type LogConfig struct {
	// Level is a zerolog level name; empty means info
	Level string `yaml:"level,omitempty"`
	// Output is stdout, stderr, or a file path; empty means stderr
	Output string `yaml:"output,omitempty"`
	// Console switches from JSON lines to human readable output
	Console bool `yaml:"console,omitempty"`
}

// NewLogger builds a logger from cfg. The returned closer releases the log
// file when Output is a path, and is a no-op otherwise.
func NewLogger(cfg LogConfig) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
		}
	}

	var (
		out    io.Writer
		closer = func() error { return nil }
	)
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, FileMode)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closer = f.Close
	}

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}
