// AngelaMos | 2026
// scheduler.go

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/streamflix/internal/config"
	"github.com/carterperez-dev/streamflix/internal/subscription"
)

// Sweeper moves subscriptions between statuses as dates pass.
type Sweeper interface {
	SweepStatuses(ctx context.Context) (map[subscription.Status]int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	cfg      config.SchedulerConfig
	timeout  time.Duration
	logger   *slog.Logger
	stopOnce sync.Once
}

func New(cfg config.SchedulerConfig, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sweeper: sweeper,
		cfg:     cfg,
		timeout: time.Minute,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop. It returns without
// doing anything when the scheduler is disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.SubscriptionSweep, func() {
		s.RunSweep(ctx)
	}); err != nil {
		return fmt.Errorf("schedule subscription sweep %q: %w", s.cfg.SubscriptionSweep, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "subscription_sweep", s.cfg.SubscriptionSweep)
	return nil
}

// RunSweep performs one subscription status sweep.
func (s *Scheduler) RunSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changed, err := s.sweeper.SweepStatuses(ctx)
	if err != nil {
		s.logger.Error("subscription sweep failed", "error", err)
		return
	}

	s.logger.Info("subscription sweep finished",
		"activated", changed[subscription.StatusActive],
		"expired", changed[subscription.StatusInactive],
	)
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		stopped := s.cron.Stop()
		select {
		case <-stopped.Done():
			s.logger.Info("scheduler stopped")
		case <-ctx.Done():
			s.logger.Warn("scheduler stop timed out")
		}
	})
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
