// Package scheduler rebuilds the offer snapshot on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"villa-offers-api/internal/cache"
	"villa-offers-api/internal/logger"
)

// Refresher rebuilds the offer snapshot.
type Refresher interface {
	RefreshSnapshot(ctx context.Context) (*cache.Snapshot, error)
}

type Scheduler struct {
	expr      string
	refresher Refresher
	log       *logger.Logger
	cron      *cron.Cron
	timeout   time.Duration

	mu      sync.Mutex
	started bool
}

// New returns a scheduler for a standard five-field cron expression. An invalid
// expression is reported here rather than at Start.
func New(expr string, refresher Refresher, log *logger.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return &Scheduler{
		expr:      expr,
		refresher: refresher,
		log:       log,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout:   2 * time.Minute,
	}, nil
}

// Start registers the refresh job and starts the cron runner. Jobs run with a
// context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.expr, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.log.Info("starting snapshot scheduler", "cron", s.expr, "next_run", s.Next(time.Now()))
	s.cron.Start()
	s.started = true
	return nil
}

// Stop stops the runner and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}

// Trigger runs one refresh now. Errors are logged; the previous snapshot
// stays in place.
func (s *Scheduler) Trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.refresher.RefreshSnapshot(runCtx)
	if err != nil {
		s.log.Error("scheduled snapshot refresh failed", "error", err)
		return
	}
	s.log.Debug("scheduled snapshot refresh done", "version", snap.Version, "records", snap.Count())
}

// Next returns the next scheduled run after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	sched, err := cron.ParseStandard(s.expr)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(now)
}
