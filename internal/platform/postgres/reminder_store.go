package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
	"github.com/tasktracker/reminder-worker/internal/reminder"
	"github.com/tasktracker/reminder-worker/internal/store"
)

// ErrSchemaMissing is returned by CheckSchema when the tasks table is absent.
var ErrSchemaMissing = errors.New("tasks table not found")

// ReminderStore implements reminder.TaskQuery using PostgreSQL.
// Tasks and users are read-only here; reminder_events is append-only.
type ReminderStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var (
	_ reminder.TaskQuery      = (*ReminderStore)(nil)
	_ reminder.RemindedFilter = (*ReminderStore)(nil)
	_ reminder.DueTaskCounter = (*ReminderStore)(nil)
)

// NewReminderStore creates a ReminderStore on db, which may be a *sql.DB or *sql.Tx.
func NewReminderStore(db store.DBTX, log *slog.Logger) *ReminderStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReminderStore{
		db:     db,
		logger: log.With(slog.String("component", "reminder_store")),
	}
}

// FiltersReminded reports that FindDueTasks already excludes reminded tasks.
func (s *ReminderStore) FiltersReminded() bool {
	return true
}

const dueTasksWhere = `
	WHERE t.due_date IS NOT NULL
	  AND t.due_date > $1
	  AND t.due_date <= $2
	  AND t.status <> ALL($3::int[])`

const notRemindedClause = `
	  AND NOT EXISTS (
		SELECT 1 FROM reminder_events e
		WHERE e.task_id = t.id AND e.kind = 'reminder_sent'
	  )`

// FindDueTasks returns active, unreminded tasks due in (q.Now, q.WindowEnd]
// joined with their owners, nearest due date first and most urgent first
// within the same due date. A non-positive q.Limit means no limit.
func (s *ReminderStore) FindDueTasks(ctx context.Context, q reminder.DueTaskQuery) ([]domain.DueTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
	SELECT t.id, t.user_id, t.title, t.status, t.priority, t.due_date,
	       u.email, u.first_name, u.last_name
	FROM tasks t
	JOIN users u ON u.id = t.user_id` + dueTasksWhere + notRemindedClause + `
	ORDER BY t.due_date ASC, t.priority DESC, t.id ASC
	LIMIT NULLIF($4::int, 0)`

	rows, err := s.db.QueryContext(ctx, query,
		q.Now.UTC(), q.WindowEnd.UTC(), statusArgs(q.ExcludedStatuses), max(q.Limit, 0))
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "query", "failed to query due tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []domain.DueTask
	for rows.Next() {
		var (
			dt               domain.DueTask
			status, priority int
			due              time.Time
		)
		if err := rows.Scan(
			&dt.Task.ID, &dt.Task.UserID, &dt.Task.Title, &status, &priority, &due,
			&dt.Recipient.Email, &dt.Recipient.FirstName, &dt.Recipient.LastName,
		); err != nil {
			return nil, store.NewStoreError("task", "scan", "failed to scan due task", err)
		}
		dt.Task.Status = domain.TaskStatus(status)
		dt.Task.Priority = domain.TaskPriority(priority)
		due = due.UTC()
		dt.Task.DueDate = &due
		dt.Recipient.UserID = dt.Task.UserID
		out = append(out, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due tasks: %w", err)
	}

	log.Debug("queried due tasks", slog.Int("count", len(out)), slog.Int("limit", q.Limit))
	return out, nil
}

// CountDueTasks counts active tasks due in the query window, reminded or not.
func (s *ReminderStore) CountDueTasks(ctx context.Context, q reminder.DueTaskQuery) (int, error) {
	query := `SELECT COUNT(*) FROM tasks t` + dueTasksWhere

	var n int
	err := s.db.QueryRowContext(ctx, query,
		q.Now.UTC(), q.WindowEnd.UTC(), statusArgs(q.ExcludedStatuses)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due tasks: %w", MapError(err))
	}
	return n, nil
}

// HasReminderEvent reports whether a reminder_sent event exists for the task.
func (s *ReminderStore) HasReminderEvent(ctx context.Context, taskID uuid.UUID) (bool, error) {
	query := `
	SELECT EXISTS (
		SELECT 1 FROM reminder_events WHERE task_id = $1 AND kind = $2
	)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, taskID, string(domain.EventKindReminderSent)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reminder event for task %s: %w", taskID, MapError(err))
	}
	return exists, nil
}

// CountReminderEvents counts reminder_sent events created in the UTC day
// that begins at since.
func (s *ReminderStore) CountReminderEvents(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reminder_events
		WHERE kind = $1 AND created_at >= $2 AND created_at < $3`

	from := since.UTC()
	var n int
	err := s.db.QueryRowContext(ctx, query, string(domain.EventKindReminderSent), from, from.Add(24*time.Hour)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reminder events: %w", MapError(err))
	}
	return n, nil
}

// AppendReminderEvent inserts event. A second reminder_sent event for the
// same task returns an error wrapping store.ErrReminderExists.
func (s *ReminderStore) AppendReminderEvent(ctx context.Context, event *domain.ReminderEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if event == nil {
		return store.NewStoreError("reminder_event", "append", "nil reminder event", store.ErrInvalidEntity)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
	INSERT INTO reminder_events (id, task_id, user_id, kind, dry_run, note, due_date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.TaskID,
		event.UserID,
		string(event.Kind),
		event.DryRun,
		event.Note,
		event.DueDate.UTC(),
		event.CreatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("reminder event already exists", slog.String("task_id", event.TaskID.String()))
		} else {
			log.Error("failed to insert reminder event",
				slog.String("task_id", event.TaskID.String()),
				slog.String("error", err.Error()))
		}
		return MapUniqueViolation(err, "reminder event", store.ErrReminderExists)
	}

	return nil
}

// CheckSchema verifies the tasks table is queryable.
func (s *ReminderStore) CheckSchema(ctx context.Context) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks LIMIT 1`).Scan(&one)
	switch {
	case err == nil, errors.Is(err, sql.ErrNoRows):
		return nil
	case IsUndefinedTable(err):
		return fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	default:
		return fmt.Errorf("failed to query tasks table: %w", err)
	}
}

func statusArgs(statuses []domain.TaskStatus) []int32 {
	out := make([]int32, len(statuses))
	for i, st := range statuses {
		out[i] = int32(st)
	}
	return out
}
