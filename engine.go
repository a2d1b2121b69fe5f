package brewsvc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// inboxSize bounds queued events before senders block
const inboxSize = 64

// pollOutcome is the result class of the most recent poll attempt
type pollOutcome int

const (
	outcomeNone pollOutcome = iota
	outcomeOK
	outcomeNotFound
	outcomeError
)

// pendingControl tracks the controls on one target whose effect has not
// been observed yet. done is set once running drops to zero after a
// success; the next completed poll then clears the entry.
type pendingControl struct {
	op      Operation
	running int
	done    bool
}

// syncState is owned by the engine loop; nothing else touches it
type syncState struct {
	registry     *Registry
	pollInFlight bool
	surfaceOpen  bool
	outcome      pollOutcome
	lastErr      error
	pending      map[string]*pendingControl
}

// Engine keeps a snapshot of brew services in sync with a render surface.
//
// Run owns all state. Every other method posts a message to the Run loop,
// so they are safe to call from any goroutine, including surface event
// handlers. Blocking brew calls run on worker goroutines that hand their
// results back to the loop.
type Engine struct {
	runner      Runner
	resolver    Resolver
	presenter   *Presenter
	notifier    Notifier
	log         zerolog.Logger
	clock       Clock
	currentUser string
	timeout     time.Duration
	settleDelay time.Duration
	concurrency int
	onQuit      func()

	inbox    chan any
	stopping chan struct{}
	done     chan struct{}
	running  atomic.Bool
	sem      chan struct{}
	workers  sync.WaitGroup

	timersMu sync.Mutex
	timers   map[Timer]struct{}

	state syncState
}

// NewEngine creates an Engine with default settings
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		runner:      NewExecRunner(),
		resolver:    NewStaticResolver(ExecutableSetting{Candidates: DefaultBrewCandidates()}),
		log:         zerolog.Nop(),
		clock:       realClock{},
		timeout:     DefaultCommandTimeout,
		settleDelay: DefaultSettleDelay,
		concurrency: DefaultConcurrency,
		inbox:       make(chan any, inboxSize),
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
		timers:      map[Timer]struct{}{},
		state: syncState{
			registry: NewRegistry(),
			pending:  map[string]*pendingControl{},
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.concurrency < 1 {
		e.concurrency = 1
	}
	if e.settleDelay < 0 {
		e.settleDelay = 0
	}
	if e.currentUser == "" {
		e.currentUser = currentUsername()
	}
	if e.notifier == nil {
		e.notifier = logNotifier{log: e.log}
	}
	e.sem = make(chan struct{}, e.concurrency)

	return e
}

// Loop messages. Requests carrying a reply channel get exactly one answer.
type (
	pollRequest struct {
		reply chan error
	}
	controlRequest struct {
		target string
		op     Operation
	}
	clickRequest struct {
		kind    RowKind
		service string
	}
	surfaceEvent struct {
		open bool
	}
	viewRequest struct {
		reply chan View
	}
	quitRequest struct{}
)

// PollResult is what a list worker hands back to the loop
type PollResult struct {
	// Snapshot is the parsed service list, nil on failure
	Snapshot Snapshot
	// Err is nil on success
	Err error
	// Duration is how long brew services list took
	Duration time.Duration
}

// controlResult is what a control worker hands back to the loop
type controlResult struct {
	target   string
	op       Operation
	err      error
	duration time.Duration
}

// Run processes events until ctx is done or Quit is chosen. It performs an
// initial poll, the equivalent of launching the menu bar item.
//
// Run must be called at most once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("brewsvc: engine already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(e.stopping)
		cancel()
		e.stopTimers()
		e.workers.Wait()
		close(e.done)
	}()

	e.log.Info().Str("user", e.currentUser).Msg("engine started")
	e.sync()
	if err := e.startPoll(ctx); err != nil {
		e.log.Warn().Err(err).Msg("initial poll not started")
	}

	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine stopped")
			return nil
		case msg := <-e.inbox:
			if !e.handle(ctx, msg) {
				e.log.Info().Msg("quit requested")
				return nil
			}
		}
	}
}

// Done is closed after Run has returned and every worker has exited
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// handle applies one message; it returns false when the loop should exit
func (e *Engine) handle(ctx context.Context, msg any) bool {
	switch m := msg.(type) {
	case pollRequest:
		err := e.startPoll(ctx)
		if m.reply != nil {
			m.reply <- err
		}
	case PollResult:
		e.finishPoll(m)
	case controlRequest:
		e.startControl(ctx, m.target, m.op)
	case controlResult:
		e.finishControl(ctx, m)
	case clickRequest:
		e.handleClick(ctx, m)
	case surfaceEvent:
		e.state.surfaceOpen = m.open
		if m.open {
			if err := e.startPoll(ctx); err != nil && !errors.Is(err, ErrPollInFlight) {
				e.log.Debug().Err(err).Msg("poll on open failed")
			}
		}
	case viewRequest:
		m.reply <- e.view()
	case quitRequest:
		if e.onQuit != nil {
			e.onQuit()
		}
		return false
	default:
		e.log.Warn().Type("message", msg).Msg("unknown engine message")
	}
	return true
}

// post delivers msg to the loop, or fails once the engine has stopped
func (e *Engine) post(ctx context.Context, msg any) error {
	select {
	case e.inbox <- msg:
		return nil
	case <-e.stopping:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn runs job on a worker goroutine and posts its result to the loop
func (e *Engine) spawn(ctx context.Context, job func(context.Context) any) {
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()

		select {
		case e.sem <- struct{}{}:
			defer func() { <-e.sem }()
		case <-e.stopping:
			return
		}

		msg := job(ctx)

		select {
		case e.inbox <- msg:
		case <-e.stopping:
		}
	}()
}

// after posts msg to the loop once d has elapsed
func (e *Engine) after(d time.Duration, msg any) {
	var t Timer
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	t = e.clock.AfterFunc(d, func() {
		e.timersMu.Lock()
		delete(e.timers, t)
		e.timersMu.Unlock()
		_ = e.post(context.Background(), msg)
	})
	e.timers[t] = struct{}{}
}

func (e *Engine) stopTimers() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for t := range e.timers {
		t.Stop()
	}
	e.timers = map[Timer]struct{}{}
}

// RequestPoll asks for a refresh. It returns nil when a poll was started,
// ErrPollInFlight when it was dropped because one is already running, or an
// error wrapping ErrExecutableNotFound.
func (e *Engine) RequestPoll(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := e.post(ctx, pollRequest{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-e.stopping:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh requests a poll without waiting for the gate decision
func (e *Engine) Refresh() {
	_ = e.post(context.Background(), pollRequest{})
}

// Control issues op on target (a service name or AllServices) and
// re-polls once brew has settled. It does not wait for brew.
func (e *Engine) Control(target string, op Operation) {
	_ = e.post(context.Background(), controlRequest{target: target, op: op})
}

// SurfaceOpened marks the surface as presented and triggers a poll
func (e *Engine) SurfaceOpened() {
	_ = e.post(context.Background(), surfaceEvent{open: true})
}

// SurfaceClosed marks the surface as hidden
func (e *Engine) SurfaceClosed() {
	_ = e.post(context.Background(), surfaceEvent{open: false})
}

// RowClicked toggles the named service: started services are stopped,
// anything else is started
func (e *Engine) RowClicked(service string) {
	_ = e.post(context.Background(), clickRequest{kind: RowService, service: service})
}

// RestartClicked restarts the named service
func (e *Engine) RestartClicked(service string) {
	_ = e.post(context.Background(), clickRequest{kind: RowRestart, service: service})
}

// StartAll starts every service
func (e *Engine) StartAll() {
	e.Control(AllServices, OpStart)
}

// StopAll stops every service
func (e *Engine) StopAll() {
	e.Control(AllServices, OpStop)
}

// RestartAll restarts every service
func (e *Engine) RestartAll() {
	e.Control(AllServices, OpRestart)
}

// Quit stops the engine loop after calling the quit hook
func (e *Engine) Quit() {
	_ = e.post(context.Background(), quitRequest{})
}

// View returns the current read model
func (e *Engine) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := e.post(ctx, viewRequest{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-e.stopping:
		return View{}, ErrEngineStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// mode selects the render mode, first match wins
func (e *Engine) mode() Mode {
	st := &e.state
	switch {
	case st.outcome == outcomeNotFound:
		return ModeNotFound
	case st.outcome == outcomeError:
		return ModeError
	case !st.registry.Loaded():
		return ModeLoading
	default:
		return ModeNormal
	}
}

func (e *Engine) view() View {
	snap, _ := e.state.registry.Snapshot()
	pending := make([]string, 0, len(e.state.pending))
	for target := range e.state.pending {
		pending = append(pending, target)
	}
	return View{
		Mode:     e.mode(),
		Loading:  e.state.pollInFlight && e.state.surfaceOpen,
		Polling:  e.state.pollInFlight,
		Services: snap.Clone(),
		Pending:  pending,
	}
}

// sync pushes the current state to the surface
func (e *Engine) sync() {
	if e.presenter == nil {
		return
	}
	snap, _ := e.state.registry.Snapshot()
	pending := make(map[string]Operation, len(e.state.pending))
	for target, p := range e.state.pending {
		pending[target] = p.op
	}
	rows := buildRows(renderInput{
		mode:        e.mode(),
		services:    snap,
		polling:     e.state.pollInFlight && e.state.surfaceOpen,
		pending:     pending,
		currentUser: e.currentUser,
	})
	action := e.presenter.Sync(rows, e.state.surfaceOpen)
	e.log.Debug().
		Stringer("action", action).
		Stringer("mode", e.mode()).
		Int("rows", len(rows)).
		Msg("presentation synced")
}
