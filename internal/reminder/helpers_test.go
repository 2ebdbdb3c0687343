package reminder

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker/reminder-worker/internal/domain"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StartupDelay = 0
	cfg.SendDelay = 0
	cfg.CheckInterval = 10 * time.Millisecond
	return cfg
}

type taskOpt func(*domain.DueTask)

func withStatus(s domain.TaskStatus) taskOpt {
	return func(dt *domain.DueTask) { dt.Task.Status = s }
}

func withPriority(p domain.TaskPriority) taskOpt {
	return func(dt *domain.DueTask) { dt.Task.Priority = p }
}

func withoutDueDate() taskOpt {
	return func(dt *domain.DueTask) { dt.Task.DueDate = nil }
}

func withFirstName(name string) taskOpt {
	return func(dt *domain.DueTask) { dt.Recipient.FirstName = name }
}

// dueTask builds an active task due dueIn after testNow.
func dueTask(title string, dueIn time.Duration, opts ...taskOpt) domain.DueTask {
	due := testNow.Add(dueIn)
	userID := uuid.New()
	dt := domain.DueTask{
		Task: domain.Task{
			ID:       uuid.New(),
			UserID:   userID,
			Title:    title,
			Status:   domain.TaskStatusPending,
			Priority: domain.TaskPriorityMedium,
			DueDate:  &due,
		},
		Recipient: domain.Recipient{
			UserID: userID,
			Email:  title + "@example.com",
		},
	}
	for _, opt := range opts {
		opt(&dt)
	}
	return dt
}

func titles(tasks []domain.DueTask) []string {
	out := make([]string, len(tasks))
	for i, dt := range tasks {
		out[i] = dt.Task.Title
	}
	return out
}

// reminderEvent builds a reminder_sent event for dt created at createdAt.
func reminderEvent(dt domain.DueTask, createdAt time.Time) *domain.ReminderEvent {
	e, err := domain.NewReminderSentEvent(dt.Task, DetailsSent, false, createdAt)
	if err != nil {
		panic(err)
	}
	return e
}

type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  map[Outcome]int
	cycles    int
	errors    int
	remaining []int
	tasksDue  []int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: make(map[Outcome]int)}
}

func (m *recordingMetrics) RecordReminder(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o]++
}

func (m *recordingMetrics) ObserveCycle(_ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
	if err != nil {
		m.errors++
	}
}

func (m *recordingMetrics) SetEmailsRemaining(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = append(m.remaining, n)
}

func (m *recordingMetrics) SetTasksDue(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasksDue = append(m.tasksDue, n)
}

func (m *recordingMetrics) lastRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.remaining) == 0 {
		return -1
	}
	return m.remaining[len(m.remaining)-1]
}
