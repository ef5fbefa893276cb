package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/logfields"
)

// Pruner deletes audit events older than a cutoff. *eventstore.SQLiteStore implements it.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create gocron scheduler").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger, now: time.Now}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleRetention prunes audit events older than retention every
// interval, starting immediately. Returns the job ID for later management.
func (s *Scheduler) ScheduleRetention(ctx context.Context, pruner Pruner, retention, interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.prune(ctx, pruner, retention) }),
		gocron.WithName("event-retention"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRuntime, "failed to create retention job").Build()
	}
	return job.ID().String(), nil
}

// prune is called by gocron to execute one retention pass.
func (s *Scheduler) prune(ctx context.Context, pruner Pruner, retention time.Duration) {
	cutoff := s.now().Add(-retention)
	n, err := pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune audit events", logfields.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Pruned audit events",
			slog.Int64("deleted", n),
			slog.Time("cutoff", cutoff))
	}
}
