package brewsvc

import (
	"os"
	"os/user"
	"time"

	"github.com/rs/zerolog"
)

// Option configures an Engine
type Option func(*Engine)

// WithRunner sets the subprocess runner
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

// WithResolver sets how the brew executable is located
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithSurface attaches the render surface
func WithSurface(s Surface) Option {
	return func(e *Engine) {
		if s != nil {
			e.presenter = NewPresenter(s)
		}
	}
}

// WithNotifier sets where control failures are reported
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithClock replaces the real clock
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithCurrentUser overrides the user rows are enabled for
func WithCurrentUser(name string) Option {
	return func(e *Engine) {
		e.currentUser = name
	}
}

// WithTimeout bounds every brew subprocess; zero or negative disables it
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithSettleDelay sets the wait between a successful control and its re-poll
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.settleDelay = d
	}
}

// WithConcurrency sets the maximum number of concurrent brew subprocesses
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithQuitFunc is called on the engine loop when the quit row is chosen
func WithQuitFunc(f func()) Option {
	return func(e *Engine) {
		e.onQuit = f
	}
}

// WithPreferences applies the timing preferences of src and resolves brew
// through its live brew_executable setting
func WithPreferences(src SettingSource) Option {
	return func(e *Engine) {
		p := src.Current()
		e.resolver = NewPathResolver(src)
		e.settleDelay = p.SettleDelay
		e.timeout = p.CommandTimeout
	}
}

// currentUsername returns the login name of the running process
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
