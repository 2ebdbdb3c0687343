package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
// Values match the integers persisted by the task-management API.
type TaskStatus int

// Possible task status values
const (
	TaskStatusPending    TaskStatus = 1
	TaskStatusInProgress TaskStatus = 2
	TaskStatusCompleted  TaskStatus = 3
	TaskStatusCancelled  TaskStatus = 4
)

// String returns the status label used in logs and emails.
func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "Pending"
	case TaskStatusInProgress:
		return "InProgress"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	return s >= TaskStatusPending && s <= TaskStatusCancelled
}

// IsClosed reports whether the task has left the active lifecycle.
// Closed tasks never receive reminders.
func (s TaskStatus) IsClosed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// ClosedTaskStatuses lists the statuses excluded from reminder selection.
func ClosedTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusCompleted, TaskStatusCancelled}
}

// TaskPriority orders tasks by urgency; higher values are more urgent.
type TaskPriority int

// Possible task priority values
const (
	TaskPriorityLow      TaskPriority = 0
	TaskPriorityMedium   TaskPriority = 1
	TaskPriorityHigh     TaskPriority = 2
	TaskPriorityCritical TaskPriority = 3
)

// String returns the priority label shown to recipients.
func (p TaskPriority) String() string {
	switch p {
	case TaskPriorityLow:
		return "Low"
	case TaskPriorityMedium:
		return "Medium"
	case TaskPriorityHigh:
		return "High"
	case TaskPriorityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("TaskPriority(%d)", int(p))
	}
}

// IsValid reports whether p is one of the known priorities.
func (p TaskPriority) IsValid() bool {
	return p >= TaskPriorityLow && p <= TaskPriorityCritical
}

// Task is the subset of a task-management task the reminder worker reads.
// Tasks are created and mutated by the API; the worker never writes them.
type Task struct {
	ID       uuid.UUID    `json:"id"`
	UserID   uuid.UUID    `json:"user_id"`
	Title    string       `json:"title"`
	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority"`
	DueDate  *time.Time   `json:"due_date,omitempty"`
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil || t.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidTaskPriority
	}
	return nil
}

// IsReminderCandidate reports whether the task is due within (now, windowEnd]
// and still active.
func (t *Task) IsReminderCandidate(now, windowEnd time.Time) bool {
	if t.DueDate == nil || t.Status.IsClosed() {
		return false
	}
	due := *t.DueDate
	return due.After(now) && !due.After(windowEnd)
}

// DueTask is a task joined with the user who should be reminded about it.
type DueTask struct {
	Task      Task      `json:"task"`
	Recipient Recipient `json:"recipient"`
}
