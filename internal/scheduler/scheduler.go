package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yanqian/codify/internal/domain/forecast"
)

// Refresher runs the bulk forecast warm-up.
type Refresher interface {
	RefreshAll(ctx context.Context, targets []forecast.Target, today time.Time) (forecast.RefreshSummary, error)
}

// Config controls when the warm-up runs.
type Config struct {
	Enabled  bool
	Schedule string
	Timeout  time.Duration
}

// Scheduler periodically warms the forecast cache for known locations.
type Scheduler struct {
	cfg       Config
	scheduler *gocron.Scheduler
	refresher Refresher
	targets   []forecast.Target
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Scheduler that evaluates its cron expression in loc.
func New(cfg Config, refresher Refresher, targets []forecast.Target, loc *time.Location, logger *slog.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		cfg:       cfg,
		scheduler: s,
		refresher: refresher,
		targets:   targets,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the warm-up job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled || s.refresher == nil {
		s.logger.Info("forecast warm-up disabled")
		return nil
	}
	if len(s.targets) == 0 {
		s.logger.Info("no warm-up targets configured; nothing to schedule")
		return nil
	}
	if _, err := s.scheduler.Cron(s.cfg.Schedule).Do(s.RunOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("forecast warm-up scheduled", "schedule", s.cfg.Schedule, "targets", len(s.targets))
	return nil
}

// RunOnce refreshes every target for the current day.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	summary, err := s.refresher.RefreshAll(ctx, s.targets, s.now().In(s.loc))
	if err != nil {
		s.logger.Error("forecast warm-up failed", "run_id", summary.RunID, "error", err)
		return
	}
	s.logger.Info("forecast warm-up completed",
		"run_id", summary.RunID,
		"status", summary.Status,
		"succeeded", summary.SuccessCount,
		"total", summary.Total,
		"failed", summary.FailedRegions,
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
