package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
)

// CycleRunner runs a single reminder cycle. *Service implements it.
type CycleRunner interface {
	ProcessReminders(ctx context.Context) (CycleResult, error)
}

var _ CycleRunner = (*Service)(nil)

// Scheduler drives reminder cycles until its context is cancelled.
type Scheduler struct {
	runner  CycleRunner
	health  *HealthTracker
	metrics MetricsRecorder
	cfg     Config
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler. A nil metrics recorder discards measurements.
func NewScheduler(
	runner CycleRunner,
	health *HealthTracker,
	metrics MetricsRecorder,
	cfg Config,
	log *slog.Logger,
) *Scheduler {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if health == nil {
		panic("health tracker cannot be nil")
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		runner:  runner,
		health:  health,
		metrics: metrics,
		cfg:     cfg,
		logger:  log.With(slog.String("component", "reminder_scheduler")),
	}
}

// Run waits for the startup delay, then runs cycles back to back with
// CheckInterval between them. Cycles never overlap. Run returns nil once ctx
// is cancelled; a cycle in progress finishes its current candidate first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("reminder scheduler started",
		slog.Duration("check_interval", s.cfg.CheckInterval),
		slog.Duration("lookahead", s.cfg.Lookahead),
		slog.Int("daily_email_quota", s.cfg.DailyEmailQuota),
		slog.Int("max_emails_per_run", s.cfg.MaxEmailsPerRun),
		slog.Bool("email_sending_enabled", s.cfg.EnableEmailSending))

	if !sleepContext(ctx, s.cfg.StartupDelay) {
		s.logger.Info("reminder scheduler stopped before first cycle")
		return nil
	}

	for {
		_ = s.RunCycle(ctx)

		if !sleepContext(ctx, s.cfg.CheckInterval) {
			s.logger.Info("reminder scheduler stopped")
			return nil
		}
	}
}

// RunCycle runs one cycle and records its outcome with the health tracker
// and metrics. A panic inside the cycle is recovered and treated as a failure.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	start := time.Now()
	log := s.logger.With(slog.String("cycle_id", uuid.NewString()))
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting reminder check cycle")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder cycle panicked: %v", r)
		}

		elapsed := time.Since(start)
		s.metrics.ObserveCycle(elapsed, err)
		if err != nil {
			s.health.RecordFailure()
			log.Error("error occurred during reminder processing cycle",
				slog.Any("error", err),
				slog.Duration("duration", elapsed))
			return
		}
		s.health.RecordSuccess()
		log.Info("reminder check cycle completed",
			slog.Duration("duration", elapsed),
			slog.Duration("next_check_in", s.cfg.CheckInterval))
	}()

	_, err = s.runner.ProcessReminders(ctx)
	return err
}
