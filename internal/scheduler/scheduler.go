package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"recorss/internal/logger"
	"recorss/internal/service"
)

// Scheduler runs a refresh pass on start and then every interval until its
// context is cancelled or Stop is called. Stop also aborts a running pass.
type Scheduler struct {
	refresh  service.RefreshService
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func New(refresh service.RefreshService, interval time.Duration) *Scheduler {
	return &Scheduler{refresh: refresh, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	logger.Info("scheduler started", "module", "scheduler", "action", "schedule", "resource", "pass", "result", "ok", "interval", s.interval.String())
}

func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		logger.Info("scheduler stopped", "module", "scheduler", "action", "schedule", "resource", "pass", "result", "ok")
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(parent context.Context) {
	// A pass may not outlive its interval.
	ctx, cancel := context.WithTimeout(parent, s.interval)
	defer cancel()

	report, err := s.refresh.RefreshAll(ctx)
	switch {
	case err == nil:
		logger.Info("scheduled refresh completed", "module", "scheduler", "action", "refresh", "resource", "pass", "result", "ok", "run_id", report.RunID, "feeds", len(report.Feeds), "failed", len(report.Failed()))
	case errors.Is(err, service.ErrAlreadyRefreshing):
		logger.Warn("scheduled refresh skipped", "module", "scheduler", "action", "refresh", "resource", "pass", "result", "skipped", "reason", "already refreshing")
	case ctx.Err() != nil:
		logger.Warn("scheduled refresh cancelled", "module", "scheduler", "action", "refresh", "resource", "pass", "result", "cancelled", "run_id", report.RunID)
	default:
		logger.Error("scheduled refresh failed", "module", "scheduler", "action", "refresh", "resource", "pass", "result", "failed", "error", err)
	}
}
