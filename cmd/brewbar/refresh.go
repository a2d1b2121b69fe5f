package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	brewsvc "github.com/axondata/go-brewsvc"
)

// refresher owns the periodic poll schedule and swaps it when the refresh
// preference changes
type refresher struct {
	fire func()
	log  zerolog.Logger

	mu        sync.Mutex
	spec      string
	scheduler *brewsvc.Scheduler
}

func newRefresher(fire func(), log zerolog.Logger) *refresher {
	return &refresher{fire: fire, log: log}
}

// apply installs spec, replacing any running schedule. "off" disables it.
func (r *refresher) apply(spec string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec == r.spec && r.scheduler != nil {
		return
	}
	r.stopLocked()
	r.spec = spec

	p := brewsvc.Preferences{Refresh: spec}
	if !p.RefreshEnabled() {
		r.log.Info().Msg("periodic refresh disabled")
		return
	}
	s, err := brewsvc.NewScheduler(spec, r.fire, r.log)
	if err != nil {
		r.log.Warn().Err(err).Msg("periodic refresh disabled")
		return
	}
	s.Start()
	r.scheduler = s
}

// follow applies every published preference change until ctx is done
func (r *refresher) follow(ctx context.Context, store *brewsvc.PreferenceStore) {
	updates := store.Subscribe(1)
	defer store.Unsubscribe(updates)

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			r.apply(p.Refresh)
		}
	}
}

func (r *refresher) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *refresher) stopLocked() {
	if r.scheduler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.scheduler.Stop(ctx)
	r.scheduler = nil
}
