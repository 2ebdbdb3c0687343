package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker/reminder-worker/internal/domain"
)

// DueTaskQuery describes the candidate window handed to the task store.
// Stores return rows with a due date in (Now, WindowEnd], a status outside
// ExcludedStatuses, ordered by due date ascending then priority descending,
// and at most Limit rows.
type DueTaskQuery struct {
	Now              time.Time
	WindowEnd        time.Time
	Limit            int
	ExcludedStatuses []domain.TaskStatus
}

// TaskQuery is the store the reminder pipeline reads tasks from and records
// reminder events in.
type TaskQuery interface {
	// FindDueTasks returns tasks matching q joined with their owners.
	FindDueTasks(ctx context.Context, q DueTaskQuery) ([]domain.DueTask, error)

	// HasReminderEvent reports whether a reminder_sent event exists for the task.
	HasReminderEvent(ctx context.Context, taskID uuid.UUID) (bool, error)

	// CountReminderEvents counts reminder_sent events created in the 24 hours
	// starting at since, which is the start of a UTC day.
	CountReminderEvents(ctx context.Context, since time.Time) (int, error)

	// AppendReminderEvent inserts an event. A second reminder_sent event for
	// the same task yields an error wrapping store.ErrDuplicate.
	AppendReminderEvent(ctx context.Context, event *domain.ReminderEvent) error
}

// RemindedFilter is implemented by stores whose FindDueTasks already omits
// tasks that have a reminder_sent event.
type RemindedFilter interface {
	FiltersReminded() bool
}

// DueTaskCounter is implemented by stores that can count every task in the
// window, not only the returned page.
type DueTaskCounter interface {
	CountDueTasks(ctx context.Context, q DueTaskQuery) (int, error)
}

// EmailSender delivers one reminder email.
type EmailSender interface {
	SendReminder(ctx context.Context, email domain.ReminderEmail) error
}

// Claimer coordinates replicas so only one of them sends a given reminder.
type Claimer interface {
	// Claim returns false when another worker already holds the task.
	Claim(ctx context.Context, taskID uuid.UUID) (bool, error)

	// Release gives up a claim after a failed send so the task stays eligible.
	Release(ctx context.Context, taskID uuid.UUID) error
}

// NopClaimer grants every claim. It is used when no coordination store is configured.
type NopClaimer struct{}

// Claim always succeeds.
func (NopClaimer) Claim(context.Context, uuid.UUID) (bool, error) { return true, nil }

// Release does nothing.
func (NopClaimer) Release(context.Context, uuid.UUID) error { return nil }

// Outcome classifies what happened to a single candidate.
type Outcome string

// Candidate outcomes
const (
	OutcomeSent    Outcome = "sent"
	OutcomeDryRun  Outcome = "dry_run"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"

	// OutcomeDuplicate means the email went out but another worker had
	// already recorded the task. It counts as a skip for the cycle.
	OutcomeDuplicate Outcome = "duplicate"
)

// MetricsRecorder receives worker measurements.
type MetricsRecorder interface {
	// RecordReminder counts one processed candidate.
	RecordReminder(outcome Outcome)

	// ObserveCycle records a finished cycle; err is nil on success.
	ObserveCycle(duration time.Duration, err error)

	// SetEmailsRemaining publishes the remaining daily quota.
	SetEmailsRemaining(n int)

	// SetTasksDue publishes how many tasks fall in the lookahead window.
	SetTasksDue(n int)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

// RecordReminder does nothing.
func (NopMetrics) RecordReminder(Outcome) {}

// ObserveCycle does nothing.
func (NopMetrics) ObserveCycle(time.Duration, error) {}

// SetEmailsRemaining does nothing.
func (NopMetrics) SetEmailsRemaining(int) {}

// SetTasksDue does nothing.
func (NopMetrics) SetTasksDue(int) {}

var (
	_ Claimer         = NopClaimer{}
	_ MetricsRecorder = NopMetrics{}
)
