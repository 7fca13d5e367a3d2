package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Retention is how long finished windows are kept before pruning.
const Retention = 2 * Window

// Scheduler prunes stale limiter state on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	pruner Pruner
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(log *slog.Logger, pruner Pruner) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		pruner: pruner,
		logger: log.With(slog.String("service", "ratelimit_pruner")),
		now:    time.Now,
	}
}

// Start registers the hourly prune job and starts the scheduler. It is a
// no-op for limiters without persistent state.
func (s *Scheduler) Start(spec string) error {
	if s.pruner == nil {
		return nil
	}
	if spec == "" {
		spec = "@hourly"
	}
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// RunOnce prunes windows older than Retention.
func (s *Scheduler) RunOnce(ctx context.Context) int64 {
	if s.pruner == nil {
		return 0
	}
	n, err := s.pruner.Prune(ctx, s.now().Add(-Retention))
	if err != nil {
		s.logger.Error("prune rate limits failed", slog.Any("error", err))
		return 0
	}
	if n > 0 {
		s.logger.Info("pruned rate limits", slog.Int64("removed", n))
	}
	return n
}

func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
