package brewsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Scheduler triggers periodic polls from a cron spec
type Scheduler struct {
	cron *cron.Cron
	spec string
	log  zerolog.Logger
}

// NewScheduler runs fn on spec, which may be a standard five field
// expression or a descriptor such as "@every 1m"
func NewScheduler(spec string, fn func(), log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("refresh spec %q: %w", spec, err)
	}
	return &Scheduler{cron: c, spec: spec, log: log}, nil
}

// ValidateRefreshSpec reports whether spec would be accepted by NewScheduler
func ValidateRefreshSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("refresh spec %q: %w", spec, err)
	}
	return nil
}

// Start begins firing in the background
func (s *Scheduler) Start() {
	s.log.Debug().Str("spec", s.spec).Msg("refresh scheduler started")
	s.cron.Start()
}

// Stop prevents further runs and waits for a running one, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Throttle limits how often fn runs. Triggers beyond the limit are
// dropped, never queued.
type Throttle struct {
	limiter *rate.Limiter
	fn      func()
}

// NewThrottle allows burst calls at once and one more per interval
func NewThrottle(interval time.Duration, burst int, fn func()) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
		fn:      fn,
	}
}

// Trigger runs fn if the limit allows and reports whether it ran
func (t *Throttle) Trigger() bool {
	if !t.limiter.Allow() {
		return false
	}
	t.fn()
	return true
}
