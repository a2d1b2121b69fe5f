package brewsvc

import (
	"context"
	"fmt"
)

// Alert texts
const (
	alertNotFoundTitle = "Error locating Homebrew"
	alertControlDetail = "You will need to manually resolve the issue."
)

// startControl dispatches a mutating brew call. It runs on the loop.
func (e *Engine) startControl(ctx context.Context, target string, op Operation) {
	if !op.IsControl() || target == "" {
		e.log.Warn().Str("service", target).Stringer("op", op).Msg("ignoring invalid control request")
		return
	}

	path, err := e.resolver.Resolve()
	if err != nil {
		e.log.Warn().Err(err).Str("service", target).Stringer("op", op).Msg("control aborted: brew not found")
		e.notifier.Alert(alertNotFoundTitle, err.Error())
		if err := e.startPoll(ctx); err != nil {
			e.log.Debug().Err(err).Msg("re-poll after lookup failure not started")
		}
		return
	}

	p, ok := e.state.pending[target]
	if !ok {
		p = &pendingControl{}
		e.state.pending[target] = p
	}
	p.op = op
	p.running++
	p.done = false
	e.sync()

	e.log.Info().Str("service", target).Stringer("op", op).Msg("control started")
	e.spawn(ctx, func(ctx context.Context) any {
		return e.runControl(ctx, path, target, op)
	})
}

// runControl runs brew services <op> <target> on a worker
func (e *Engine) runControl(ctx context.Context, path, target string, op Operation) controlResult {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := e.clock.Now()
	res, err := e.runner.Run(ctx, path, controlArgs(op, target)...)
	result := controlResult{target: target, op: op, duration: e.clock.Now().Sub(start)}

	switch {
	case err != nil:
		if isTimeout(ctx, err) {
			err = fmt.Errorf("%w: %w", ErrControlFailed, ErrTimeout)
		} else {
			err = fmt.Errorf("%w: %w", ErrControlFailed, err)
		}
		result.err = &OpError{Op: op, Target: target, Err: err}
	case res.ExitCode != 0:
		result.err = &OpError{Op: op, Target: target, Err: fmt.Errorf("%w: exit status %d", ErrControlFailed, res.ExitCode)}
	}
	return result
}

// finishControl reports the outcome and schedules the follow-up poll.
// Failures re-poll immediately and are never retried.
func (e *Engine) finishControl(ctx context.Context, r controlResult) {
	p, tracked := e.state.pending[r.target]
	if tracked {
		p.running--
	}

	if r.err != nil {
		e.log.Error().Err(r.err).Str("service", r.target).Stringer("op", r.op).Dur("duration", r.duration).Msg("control failed")
		if tracked && p.running <= 0 {
			delete(e.state.pending, r.target)
		}
		e.notifier.Alert(fmt.Sprintf("Could not %s %s", r.op, r.target), alertControlDetail)
		if err := e.startPoll(ctx); err != nil {
			e.log.Debug().Err(err).Msg("re-poll after control failure not started")
			e.sync()
		}
		return
	}

	e.log.Info().Str("service", r.target).Stringer("op", r.op).Dur("duration", r.duration).Msg("control finished")
	if tracked && p.running <= 0 {
		p.done = true
	}
	e.after(e.settleDelay, pollRequest{})
}

// handleClick maps a row click to a control. Unknown services and rows
// owned by another user are ignored.
func (e *Engine) handleClick(ctx context.Context, c clickRequest) {
	svc, ok := e.state.registry.Lookup(c.service)
	if !ok {
		e.log.Debug().Str("service", c.service).Msg("click on unknown service ignored")
		return
	}
	if !svc.EnabledFor(e.currentUser) {
		e.log.Debug().Str("service", c.service).Str("owner", svc.User).Msg("click on foreign service ignored")
		return
	}

	op := svc.ToggleOperation()
	if c.kind == RowRestart {
		op = OpRestart
	}
	e.startControl(ctx, svc.Name, op)
}
