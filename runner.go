package brewsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the captured outcome of one subprocess
type Result struct {
	// Stdout is everything the process wrote to standard output
	Stdout []byte
	// Stderr is everything the process wrote to standard error
	Stderr []byte
	// ExitCode is the process exit status
	ExitCode int
}

// Runner executes an external command and waits for it to exit.
//
// A non-zero exit is not an error: it is reported through Result.ExitCode.
// Run returns an error only when the process could not be started, was
// killed by ctx, or otherwise produced no exit status.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, path string, args ...string) (Result, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, path string, args ...string) (Result, error) {
	return f(ctx, path, args...)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// Env, when non-nil, replaces the environment of the child process
	Env []string
}

// NewExecRunner creates a Runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes path with args and captures both output streams
func (r *ExecRunner) Run(ctx context.Context, path string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, fmt.Errorf("%w (stderr: %s)", err, stderr.String())
}
