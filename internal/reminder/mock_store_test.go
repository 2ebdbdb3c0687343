package reminder

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/store"
)

// MockTaskQuery is an in-memory TaskQuery for tests. The Fn fields override
// the default behaviour when set.
type MockTaskQuery struct {
	mu     sync.Mutex
	tasks  []domain.DueTask
	events []*domain.ReminderEvent

	// FilterReminded makes FindDueTasks omit reminded tasks and advertises it
	// through RemindedFilter.
	FilterReminded bool

	FindFn   func(ctx context.Context, q DueTaskQuery) ([]domain.DueTask, error)
	HasFn    func(ctx context.Context, taskID uuid.UUID) (bool, error)
	CountFn  func(ctx context.Context, since time.Time) (int, error)
	AppendFn func(ctx context.Context, event *domain.ReminderEvent) error

	FindCalls   []DueTaskQuery
	HasCalls    int
	CountCalls  int
	AppendCalls int
}

var (
	_ TaskQuery      = (*MockTaskQuery)(nil)
	_ RemindedFilter = (*MockTaskQuery)(nil)
)

// NewMockTaskQuery creates a MockTaskQuery holding tasks.
func NewMockTaskQuery(tasks ...domain.DueTask) *MockTaskQuery {
	return &MockTaskQuery{tasks: slices.Clone(tasks)}
}

// AddTasks adds tasks to the store.
func (m *MockTaskQuery) AddTasks(tasks ...domain.DueTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, tasks...)
}

// AddEvents seeds reminder events.
func (m *MockTaskQuery) AddEvents(events ...*domain.ReminderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
}

// Events returns a copy of the appended events.
func (m *MockTaskQuery) Events() []*domain.ReminderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// FiltersReminded implements RemindedFilter.
func (m *MockTaskQuery) FiltersReminded() bool {
	return m.FilterReminded
}

// FindDueTasks implements TaskQuery.
func (m *MockTaskQuery) FindDueTasks(ctx context.Context, q DueTaskQuery) ([]domain.DueTask, error) {
	m.mu.Lock()
	m.FindCalls = append(m.FindCalls, q)
	m.mu.Unlock()

	if m.FindFn != nil {
		return m.FindFn(ctx, q)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.DueTask
	for _, dt := range m.tasks {
		if dt.Task.DueDate == nil || slices.Contains(q.ExcludedStatuses, dt.Task.Status) {
			continue
		}
		due := *dt.Task.DueDate
		if !due.After(q.Now) || due.After(q.WindowEnd) {
			continue
		}
		if m.FilterReminded && m.hasEventLocked(dt.Task.ID) {
			continue
		}
		out = append(out, dt)
	}
	slices.SortStableFunc(out, compareDueTasks)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// HasReminderEvent implements TaskQuery.
func (m *MockTaskQuery) HasReminderEvent(ctx context.Context, taskID uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.HasCalls++
	m.mu.Unlock()

	if m.HasFn != nil {
		return m.HasFn(ctx, taskID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasEventLocked(taskID), nil
}

// CountReminderEvents implements TaskQuery.
func (m *MockTaskQuery) CountReminderEvents(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	m.CountCalls++
	m.mu.Unlock()

	if m.CountFn != nil {
		return m.CountFn(ctx, since)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	until := since.Add(24 * time.Hour)
	for _, e := range m.events {
		if e.Kind == domain.EventKindReminderSent && !e.CreatedAt.Before(since) && e.CreatedAt.Before(until) {
			n++
		}
	}
	return n, nil
}

// AppendReminderEvent implements TaskQuery.
func (m *MockTaskQuery) AppendReminderEvent(ctx context.Context, event *domain.ReminderEvent) error {
	m.mu.Lock()
	m.AppendCalls++
	m.mu.Unlock()

	if m.AppendFn != nil {
		return m.AppendFn(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if event.Kind == domain.EventKindReminderSent && m.hasEventLocked(event.TaskID) {
		return store.ErrReminderExists
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockTaskQuery) hasEventLocked(taskID uuid.UUID) bool {
	for _, e := range m.events {
		if e.TaskID == taskID && e.Kind == domain.EventKindReminderSent {
			return true
		}
	}
	return false
}
