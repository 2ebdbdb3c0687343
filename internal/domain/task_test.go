package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTaskIsReminderCandidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	windowEnd := now.Add(24 * time.Hour)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name   string
		status TaskStatus
		due    *time.Time
		want   bool
	}{
		{"pending inside window", TaskStatusPending, at(23 * time.Hour), true},
		{"in progress inside window", TaskStatusInProgress, at(time.Hour), true},
		{"exactly at window end", TaskStatusPending, at(24 * time.Hour), true},
		{"beyond window", TaskStatusPending, at(25 * time.Hour), false},
		{"already past", TaskStatusPending, at(-time.Hour), false},
		{"due exactly now", TaskStatusPending, at(0), false},
		{"no due date", TaskStatusPending, nil, false},
		{"completed", TaskStatusCompleted, at(time.Hour), false},
		{"cancelled", TaskStatusCancelled, at(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{ID: uuid.New(), UserID: uuid.New(), Status: tt.status, DueDate: tt.due}
			if got := task.IsReminderCandidate(now, windowEnd); got != tt.want {
				t.Errorf("IsReminderCandidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := Task{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "Ship release",
		Status:   TaskStatusPending,
		Priority: TaskPriorityHigh,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	noID := valid
	noID.ID = uuid.Nil
	if err := noID.Validate(); err != ErrInvalidID {
		t.Errorf("Expected error %v, got %v", ErrInvalidID, err)
	}

	badStatus := valid
	badStatus.Status = 9
	if err := badStatus.Validate(); err != ErrInvalidTaskStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskStatus, err)
	}

	badPriority := valid
	badPriority.Priority = -1
	if err := badPriority.Validate(); err != ErrInvalidTaskPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskPriority, err)
	}
}

func TestTaskPriorityString(t *testing.T) {
	t.Parallel()

	cases := map[TaskPriority]string{
		TaskPriorityLow:      "Low",
		TaskPriorityMedium:   "Medium",
		TaskPriorityHigh:     "High",
		TaskPriorityCritical: "Critical",
		TaskPriority(7):      "TaskPriority(7)",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("TaskPriority(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestTaskStatusIsClosed(t *testing.T) {
	t.Parallel()

	for _, s := range ClosedTaskStatuses() {
		if !s.IsClosed() {
			t.Errorf("Expected %s to be closed", s)
		}
	}
	if TaskStatusPending.IsClosed() || TaskStatusInProgress.IsClosed() {
		t.Error("Expected active statuses not to be closed")
	}
}
