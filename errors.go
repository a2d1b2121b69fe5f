package brewsvc

import (
	"errors"
	"fmt"
)

// Common errors returned by brewsvc operations
var (
	// ErrExecutableNotFound indicates no configured brew candidate is an executable file
	ErrExecutableNotFound = errors.New("brewsvc: brew executable not found")

	// ErrBrew indicates brew services list exited non-zero or produced undecodable output
	ErrBrew = errors.New("brewsvc: brew error")

	// ErrControlFailed indicates a start/stop/restart invocation exited non-zero
	ErrControlFailed = errors.New("brewsvc: control failed")

	// ErrTimeout indicates a brew subprocess exceeded its timeout
	ErrTimeout = errors.New("brewsvc: timeout")

	// ErrPollInFlight indicates a poll request was dropped because another poll is running
	ErrPollInFlight = errors.New("brewsvc: poll already in flight")

	// ErrEngineStopped indicates the engine loop is no longer running
	ErrEngineStopped = errors.New("brewsvc: engine stopped")
)

// OpError represents an error from a brew services operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Target is the service name, AllServices, or the executable path for lookups
	Target string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("brew services %s: %v", e.Op.String(), e.Err)
	}
	return fmt.Sprintf("brew services %s %q: %v", e.Op.String(), e.Target, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// MultiError aggregates multiple errors, e.g. one per rejected executable candidate
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
