package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/store"
)

// InsertUser creates a user row and returns its recipient view.
func InsertUser(t *testing.T, db store.DBTX, email, firstName string) domain.Recipient {
	t.Helper()

	r := domain.Recipient{UserID: uuid.New(), Email: email, FirstName: firstName}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, first_name, last_name) VALUES ($1, $2, $3, $4)`,
		r.UserID, r.Email, r.FirstName, r.LastName)
	require.NoError(t, err, "Failed to insert user")
	return r
}

// InsertTask creates a task row owned by owner. A nil due date leaves the column NULL.
func InsertTask(
	t *testing.T,
	db store.DBTX,
	owner domain.Recipient,
	title string,
	status domain.TaskStatus,
	priority domain.TaskPriority,
	due *time.Time,
) domain.Task {
	t.Helper()

	task := domain.Task{
		ID:       uuid.New(),
		UserID:   owner.UserID,
		Title:    title,
		Status:   status,
		Priority: priority,
		DueDate:  due,
	}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO tasks (id, user_id, title, status, priority, due_date) VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.UserID, task.Title, int(task.Status), int(task.Priority), due)
	require.NoError(t, err, "Failed to insert task")
	return task
}
