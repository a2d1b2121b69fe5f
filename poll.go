package brewsvc

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// startPoll is the single-flight gate. It runs on the loop.
func (e *Engine) startPoll(ctx context.Context) error {
	st := &e.state
	if st.pollInFlight {
		e.log.Debug().Msg("poll dropped: already in flight")
		return ErrPollInFlight
	}

	path, err := e.resolver.Resolve()
	if err != nil {
		e.log.Warn().Err(err).Msg("brew executable not found")
		st.outcome = outcomeNotFound
		st.lastErr = err
		e.clearSettledControls()
		e.sync()
		return &OpError{Op: OpList, Err: err}
	}

	st.pollInFlight = true
	if st.surfaceOpen {
		e.sync()
	}

	e.log.Debug().Str("path", path).Msg("poll started")
	e.spawn(ctx, func(ctx context.Context) any {
		return e.listServices(ctx, path)
	})
	return nil
}

// listServices runs brew services list and parses it. It runs on a worker
// and must not touch engine state.
func (e *Engine) listServices(ctx context.Context, path string) PollResult {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := e.clock.Now()
	res, err := e.runner.Run(ctx, path, listArgs()...)
	result := PollResult{Duration: e.clock.Now().Sub(start)}

	switch {
	case err != nil:
		if isTimeout(ctx, err) {
			err = fmt.Errorf("%w: %w", ErrBrew, ErrTimeout)
		} else {
			err = fmt.Errorf("%w: %w", ErrBrew, err)
		}
		result.Err = &OpError{Op: OpList, Target: path, Err: err}
	case res.ExitCode != 0:
		result.Err = &OpError{Op: OpList, Target: path, Err: fmt.Errorf("%w: exit status %d", ErrBrew, res.ExitCode)}
	case !utf8.Valid(res.Stdout):
		result.Err = &OpError{Op: OpList, Target: path, Err: fmt.Errorf("%w: output is not valid UTF-8", ErrBrew)}
	default:
		result.Snapshot = ParseServiceList(trimListOutput(res.Stdout))
	}
	return result
}

// finishPoll merges a worker result. Replacing the snapshot and resyncing
// the surface happen in this one loop step.
func (e *Engine) finishPoll(r PollResult) {
	st := &e.state
	st.pollInFlight = false

	if r.Err != nil {
		e.log.Warn().Err(r.Err).Dur("duration", r.Duration).Msg("poll failed")
		st.outcome = outcomeError
		st.lastErr = r.Err
	} else {
		st.registry.Replace(r.Snapshot)
		st.outcome = outcomeOK
		st.lastErr = nil
		e.log.Debug().Int("services", len(r.Snapshot)).Dur("duration", r.Duration).Msg("poll finished")
	}

	e.clearSettledControls()
	e.sync()
}

// clearSettledControls drops pending controls whose brew call has returned;
// the poll that just finished is the freshest view of their effect
func (e *Engine) clearSettledControls() {
	for target, p := range e.state.pending {
		if p.done {
			delete(e.state.pending, target)
		}
	}
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}
