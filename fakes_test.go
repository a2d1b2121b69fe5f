package brewsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testBrew   = "/opt/homebrew/bin/brew"
	twoService = "Name State User\nredis started bob\nmysql stopped bob /usr/local/etc/mysql.plist\n"
)

// scriptedRunner answers brew invocations from per-subcommand handlers
type scriptedRunner struct {
	mu      sync.Mutex
	calls   [][]string
	list    func(ctx context.Context) (Result, error)
	control func(ctx context.Context, op, target string) (Result, error)
	called  chan []string
}

func newScriptedRunner(listOut string) *scriptedRunner {
	return &scriptedRunner{
		list: func(context.Context) (Result, error) {
			return Result{Stdout: []byte(listOut)}, nil
		},
		control: func(context.Context, string, string) (Result, error) {
			return Result{}, nil
		},
		called: make(chan []string, 64),
	}
}

func (r *scriptedRunner) Run(ctx context.Context, path string, args ...string) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	list, control := r.list, r.control
	r.mu.Unlock()
	r.called <- args

	if len(args) == 2 && args[1] == ListCommand {
		return list(ctx)
	}
	return control(ctx, args[1], args[2])
}

func (r *scriptedRunner) setList(fn func(ctx context.Context) (Result, error)) {
	r.mu.Lock()
	r.list = fn
	r.mu.Unlock()
}

func (r *scriptedRunner) setListOutput(out string) {
	r.setList(func(context.Context) (Result, error) {
		return Result{Stdout: []byte(out)}, nil
	})
}

func (r *scriptedRunner) count(sub string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if len(c) > 1 && c[1] == sub {
			n++
		}
	}
	return n
}

// waitCall blocks until the runner is invoked and returns the argv
func (r *scriptedRunner) waitCall(t *testing.T) []string {
	t.Helper()
	select {
	case args := <-r.called:
		return args
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not called")
		return nil
	}
}

// memSurface records what the engine rendered
type memSurface struct {
	mu       sync.Mutex
	rows     []Row
	rebuilds int
	updates  []Row
}

func (s *memSurface) RenderedKeys() []RowKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]RowKey, len(s.rows))
	for i, r := range s.rows {
		keys[i] = r.Key
	}
	return keys
}

func (s *memSurface) Rebuild(rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]Row(nil), rows...)
	s.rebuilds++
}

func (s *memSurface) Update(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].Key == row.Key {
			s.rows[i].Color = row.Color
			s.rows[i].Enabled = row.Enabled
			s.rows[i].Loading = row.Loading
		}
	}
	s.updates = append(s.updates, row)
}

func (s *memSurface) snapshot() (rows []Row, rebuilds int, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...), s.rebuilds, len(s.updates)
}

func (s *memSurface) row(key RowKey) (Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

// alertLog records notifier calls
type alertLog struct {
	mu     sync.Mutex
	titles []string
}

func (a *alertLog) Alert(title, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
}

func (a *alertLog) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.titles...)
}

// manualClock records AfterFunc calls; tests fire them explicitly
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (c *manualClock) Now() time.Time {
	return time.Unix(0, 0)
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*manualTimer(nil), c.timers...)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func fixedResolver(path string) Resolver {
	return ResolverFunc(func() (string, error) { return path, nil })
}

// startEngine runs an engine until the test ends
func startEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-e.Done():
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return e
}

// waitView polls View until cond holds
func waitView(t *testing.T, e *Engine, cond func(View) bool) View {
	t.Helper()
	var last View
	require.Eventually(t, func() bool {
		v, err := e.View(context.Background())
		if err != nil {
			return false
		}
		last = v
		return cond(v)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}
