package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind tags a reminder event. Selection and quota accounting match on
// the kind, never on note text.
type EventKind string

// Known reminder event kinds
const (
	// EventKindReminderSent marks a task as reminded, whether the email was
	// delivered or skipped by dry run. At most one exists per task.
	EventKindReminderSent EventKind = "reminder_sent"
)

// IsValid reports whether k is a known event kind.
func (k EventKind) IsValid() bool {
	return k == EventKindReminderSent
}

// Reminder event validation errors
var (
	ErrEmptyEventTaskID = errors.New("reminder event task ID cannot be empty")
	ErrEmptyEventUserID = errors.New("reminder event user ID cannot be empty")
)

// ReminderEvent is an append-only record that a reminder was handled for a task.
// Its presence is the sole idempotence marker and quota counter; events are
// never updated or deleted by the worker.
type ReminderEvent struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      EventKind `json:"kind"`
	DryRun    bool      `json:"dry_run"`
	Note      string    `json:"note"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReminderSentEvent builds the marker written after a task has been reminded.
// The note records the due date the reminder covered and how it was handled.
func NewReminderSentEvent(task Task, details string, dryRun bool, now time.Time) (*ReminderEvent, error) {
	var due time.Time
	if task.DueDate != nil {
		due = task.DueDate.UTC()
	}

	note := fmt.Sprintf("Reminder sent for task due %s", due.Format("2006-01-02 15:04"))
	if details != "" {
		note = note + ": " + details
	}

	event := &ReminderEvent{
		ID:        uuid.New(),
		TaskID:    task.ID,
		UserID:    task.UserID,
		Kind:      EventKindReminderSent,
		DryRun:    dryRun,
		Note:      note,
		DueDate:   due,
		CreatedAt: now.UTC(),
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// Validate checks if the ReminderEvent has valid data.
func (e *ReminderEvent) Validate() error {
	if e.ID == uuid.Nil {
		return ErrInvalidID
	}
	if e.TaskID == uuid.Nil {
		return ErrEmptyEventTaskID
	}
	if e.UserID == uuid.Nil {
		return ErrEmptyEventUserID
	}
	if !e.Kind.IsValid() {
		return ErrInvalidEventKind
	}
	return nil
}

// ReminderEmail carries everything the email collaborator needs for one reminder.
type ReminderEmail struct {
	TaskID      uuid.UUID
	ToEmail     string
	DisplayName string
	TaskTitle   string
	DueDate     time.Time
	Priority    string
}

// NewReminderEmail builds the email request for a due task.
func NewReminderEmail(dt DueTask) ReminderEmail {
	var due time.Time
	if dt.Task.DueDate != nil {
		due = *dt.Task.DueDate
	}
	return ReminderEmail{
		TaskID:      dt.Task.ID,
		ToEmail:     dt.Recipient.Email,
		DisplayName: dt.Recipient.DisplayName(),
		TaskTitle:   dt.Task.Title,
		DueDate:     due,
		Priority:    dt.Task.Priority.String(),
	}
}
