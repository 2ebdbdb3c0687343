package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/events"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
	"github.com/tasktracker/reminder-worker/internal/redact"
	"github.com/tasktracker/reminder-worker/internal/store"
)

// Details recorded on reminder events.
const (
	DetailsSent   = "Reminder email sent successfully"
	DetailsDryRun = "Email sending disabled (dry run)"
)

// CycleResult summarises one ProcessReminders call.
type CycleResult struct {
	StartedAt  time.Time
	SentToday  int
	Budget     int
	Candidates int
	Sent       int
	DryRun     int
	Failed     int
	Skipped    int
	// DuplicateSends counts emails sent whose event another worker had
	// already appended. They are included in Skipped.
	DuplicateSends int
	QuotaReached   bool
	Interrupted    bool
}

// Recorded is the number of reminder events appended during the cycle.
func (r CycleResult) Recorded() int {
	return r.Sent + r.DryRun
}

// Service runs the quota-gated dispatch of reminder emails.
type Service struct {
	store    TaskQuery
	selector *Selector
	sender   EmailSender
	claimer  Claimer
	emitter  events.EventEmitter
	metrics  MetricsRecorder
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClaimer sets the cross-replica claimer. The default grants every claim.
func WithClaimer(c Claimer) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.claimer = c
		}
	}
}

// WithEventEmitter sets where reminder.sent events are emitted.
func WithEventEmitter(e events.EventEmitter) ServiceOption {
	return func(s *Service) { s.emitter = e }
}

// WithMetrics sets the metrics recorder. The default discards measurements.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service. sender may be nil only when email sending is disabled.
func NewService(taskStore TaskQuery, sender EmailSender, cfg Config, log *slog.Logger, opts ...ServiceOption) *Service {
	if taskStore == nil {
		panic("store cannot be nil")
	}
	if sender == nil && cfg.EnableEmailSending {
		panic("sender cannot be nil when email sending is enabled")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultConfig().SendTimeout
	}

	s := &Service{
		store:    taskStore,
		selector: NewSelector(taskStore, log),
		sender:   sender,
		claimer:  NopClaimer{},
		metrics:  NopMetrics{},
		cfg:      cfg,
		now:      time.Now,
		logger:   log.With(slog.String("component", "reminder_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessReminders runs one reminder cycle.
//
// Reaching the daily quota is not an error. Store failures abort the cycle
// and are returned. Cancelling ctx stops the cycle after the current
// candidate; the partial result is returned with a nil error.
func (s *Service) ProcessReminders(ctx context.Context) (CycleResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now().UTC()
	result := CycleResult{StartedAt: now}

	sentToday, err := s.store.CountReminderEvents(ctx, StartOfUTCDay(now))
	if err != nil {
		return result, fmt.Errorf("failed to count reminder events: %w", err)
	}
	result.SentToday = sentToday

	remaining := s.cfg.DailyEmailQuota - sentToday
	s.metrics.SetEmailsRemaining(max(remaining, 0))
	if remaining <= 0 {
		result.QuotaReached = true
		log.Warn("daily email quota reached, skipping reminder processing",
			slog.Int("sent_today", sentToday),
			slog.Int("quota", s.cfg.DailyEmailQuota))
		return result, nil
	}

	result.Budget = min(s.cfg.MaxEmailsPerRun, remaining)
	log.Info("email quota status",
		slog.Int("sent_today", sentToday),
		slog.Int("quota", s.cfg.DailyEmailQuota),
		slog.Int("max_this_run", result.Budget))

	s.publishTasksDue(ctx, log, now)

	candidates, err := s.selector.SelectCandidates(ctx, now, s.cfg.Lookahead, result.Budget)
	if err != nil {
		return result, err
	}
	result.Candidates = len(candidates)
	log.Info("found tasks needing reminders", slog.Int("count", len(candidates)))

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			result.Interrupted = true
			log.Info("cancellation requested, stopping reminder processing")
			break
		}

		outcome, err := s.dispatch(ctx, log, candidate)
		s.metrics.RecordReminder(outcome)
		switch outcome {
		case OutcomeSent:
			result.Sent++
		case OutcomeDryRun:
			result.DryRun++
		case OutcomeFailed:
			result.Failed++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeDuplicate:
			result.Skipped++
			result.DuplicateSends++
		}
		if err != nil {
			s.metrics.SetEmailsRemaining(max(remaining-result.Recorded(), 0))
			return result, err
		}

		// Pace every candidate that reached the provider; dry runs and lost
		// claims never do.
		if s.cfg.EnableEmailSending && outcome != OutcomeSkipped && i < len(candidates)-1 {
			if !sleepContext(ctx, s.cfg.SendDelay) {
				result.Interrupted = true
				log.Info("cancellation requested, stopping reminder processing")
				break
			}
		}
	}

	s.metrics.SetEmailsRemaining(max(remaining-result.Recorded(), 0))
	log.Info("reminder processing completed",
		slog.Int("sent", result.Sent),
		slog.Int("dry_run", result.DryRun),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("duplicate_sends", result.DuplicateSends),
		slog.Int("total_today", sentToday+result.Recorded()),
		slog.Bool("interrupted", result.Interrupted))

	return result, nil
}

// dispatch handles one candidate. The work runs on a context that survives
// cancellation of ctx so a send is never left without its event.
func (s *Service) dispatch(ctx context.Context, log *slog.Logger, dt domain.DueTask) (Outcome, error) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SendTimeout)
	defer cancel()

	taskLog := log.With(slog.String("task_id", dt.Task.ID.String()))

	if !s.cfg.EnableEmailSending {
		taskLog.Info("email sending disabled, would send reminder",
			slog.String("title", dt.Task.Title))
		return s.record(opCtx, taskLog, dt, DetailsDryRun, true)
	}

	claimed, err := s.claimer.Claim(opCtx, dt.Task.ID)
	if err != nil {
		taskLog.Warn("failed to claim task, sending without claim", slog.Any("error", err))
		claimed = true
	}
	if !claimed {
		taskLog.Info("task claimed by another worker, skipping")
		return OutcomeSkipped, nil
	}

	if err := s.sender.SendReminder(opCtx, domain.NewReminderEmail(dt)); err != nil {
		taskLog.Warn("failed to send reminder",
			slog.String("title", dt.Task.Title),
			slog.String("error", redact.Error(err)))
		if relErr := s.claimer.Release(opCtx, dt.Task.ID); relErr != nil {
			taskLog.Warn("failed to release task claim", slog.Any("error", relErr))
		}
		return OutcomeFailed, nil
	}

	outcome, err := s.record(opCtx, taskLog, dt, DetailsSent, false)
	if err != nil {
		return OutcomeSent, fmt.Errorf("%w: task %s: %w", ErrReminderNotRecorded, dt.Task.ID, err)
	}
	if outcome == OutcomeSkipped {
		return OutcomeDuplicate, nil
	}
	if outcome == OutcomeSent {
		taskLog.Info("reminder sent",
			slog.String("title", dt.Task.Title),
			slog.String("email", redact.Email(dt.Recipient.Email)))
	}
	return outcome, nil
}

// record appends the reminder event and emits reminder.sent.
func (s *Service) record(
	ctx context.Context,
	log *slog.Logger,
	dt domain.DueTask,
	details string,
	dryRun bool,
) (Outcome, error) {
	event, err := domain.NewReminderSentEvent(dt.Task, details, dryRun, s.now())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to build reminder event: %w", err)
	}

	if err := s.store.AppendReminderEvent(ctx, event); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Warn("reminder already recorded by another worker")
			return OutcomeSkipped, nil
		}
		outcome := OutcomeFailed
		if !dryRun {
			log.Error("reminder sent but not recorded", slog.Any("error", err))
			outcome = OutcomeSent
		}
		return outcome, fmt.Errorf("failed to append reminder event: %w", err)
	}

	s.emit(ctx, log, event)

	if dryRun {
		return OutcomeDryRun, nil
	}
	return OutcomeSent, nil
}

func (s *Service) emit(ctx context.Context, log *slog.Logger, re *domain.ReminderEvent) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeReminderSent, events.ReminderSentPayload{
		ReminderEventID: re.ID,
		TaskID:          re.TaskID,
		UserID:          re.UserID,
		DueDate:         re.DueDate,
		DryRun:          re.DryRun,
		RecordedAt:      re.CreatedAt,
	})
	if err != nil {
		log.Error("failed to build reminder.sent event", slog.Any("error", err))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("reminder.sent event not delivered to every handler", slog.Any("error", err))
	}
}

func (s *Service) publishTasksDue(ctx context.Context, log *slog.Logger, now time.Time) {
	counter, ok := s.store.(DueTaskCounter)
	if !ok {
		return
	}
	n, err := counter.CountDueTasks(ctx, s.selector.Query(now, s.cfg.Lookahead, 0))
	if err != nil {
		log.Warn("failed to count due tasks", slog.Any("error", err))
		return
	}
	s.metrics.SetTasksDue(n)
}

// sleepContext waits for d or until ctx is done. It reports whether the
// full duration elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
