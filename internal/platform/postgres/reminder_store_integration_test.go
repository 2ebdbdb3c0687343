//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktracker/reminder-worker/internal/domain"
	"github.com/tasktracker/reminder-worker/internal/platform/postgres"
	"github.com/tasktracker/reminder-worker/internal/reminder"
	"github.com/tasktracker/reminder-worker/internal/store"
	"github.com/tasktracker/reminder-worker/internal/testdb"
)

func at(t time.Time) *time.Time { return &t }

func TestReminderStoreIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	query := reminder.DueTaskQuery{
		Now:              now,
		WindowEnd:        now.Add(24 * time.Hour),
		Limit:            10,
		ExcludedStatuses: domain.ClosedTaskStatuses(),
	}

	t.Run("find due tasks applies window, status, order and anti-join", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := postgres.NewReminderStore(tx, nil)
			owner := testdb.InsertUser(t, tx, "owner@example.com", "Olive")

			testdb.InsertTask(t, tx, owner, "past", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(-time.Hour)))
			testdb.InsertTask(t, tx, owner, "no-due", domain.TaskStatusPending, domain.TaskPriorityLow, nil)
			testdb.InsertTask(t, tx, owner, "too-late", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(25*time.Hour)))
			testdb.InsertTask(t, tx, owner, "done", domain.TaskStatusCompleted, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			testdb.InsertTask(t, tx, owner, "dropped", domain.TaskStatusCancelled, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			low := testdb.InsertTask(t, tx, owner, "early-low", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			testdb.InsertTask(t, tx, owner, "early-critical", domain.TaskStatusInProgress, domain.TaskPriorityCritical, at(now.Add(time.Hour)))
			testdb.InsertTask(t, tx, owner, "boundary", domain.TaskStatusPending, domain.TaskPriorityMedium, at(now.Add(24*time.Hour)))

			got, err := s.FindDueTasks(ctx, query)
			require.NoError(t, err)

			var titles []string
			for _, dt := range got {
				titles = append(titles, dt.Task.Title)
			}
			assert.Equal(t, []string{"early-critical", "early-low", "boundary"}, titles)
			assert.Equal(t, "owner@example.com", got[0].Recipient.Email)
			assert.Equal(t, "Olive", got[0].Recipient.DisplayName())

			n, err := s.CountDueTasks(ctx, query)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			event, err := domain.NewReminderSentEvent(low, reminder.DetailsSent, false, now)
			require.NoError(t, err)
			require.NoError(t, s.AppendReminderEvent(ctx, event))

			got, err = s.FindDueTasks(ctx, query)
			require.NoError(t, err)
			require.Len(t, got, 2)
			for _, dt := range got {
				assert.NotEqual(t, low.ID, dt.Task.ID, "reminded task must be excluded")
			}

			limited := query
			limited.Limit = 1
			got, err = s.FindDueTasks(ctx, limited)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	})

	t.Run("reminder events are unique per task and counted per day", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := postgres.NewReminderStore(tx, nil)
			owner := testdb.InsertUser(t, tx, "counter@example.com", "")
			task := testdb.InsertTask(t, tx, owner, "count me", domain.TaskStatusPending, domain.TaskPriorityHigh, at(now.Add(2*time.Hour)))

			has, err := s.HasReminderEvent(ctx, task.ID)
			require.NoError(t, err)
			assert.False(t, has)

			first, err := domain.NewReminderSentEvent(task, reminder.DetailsDryRun, true, now)
			require.NoError(t, err)
			require.NoError(t, s.AppendReminderEvent(ctx, first))

			has, err = s.HasReminderEvent(ctx, task.ID)
			require.NoError(t, err)
			assert.True(t, has)

			second, err := domain.NewReminderSentEvent(task, reminder.DetailsSent, false, now)
			require.NoError(t, err)
			err = s.AppendReminderEvent(ctx, second)
			assert.ErrorIs(t, err, store.ErrReminderExists)
		})
	})

	t.Run("count reminder events for the day", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := postgres.NewReminderStore(tx, nil)
			owner := testdb.InsertUser(t, tx, "quota@example.com", "Quinn")
			since := reminder.StartOfUTCDay(now)

			before, err := s.CountReminderEvents(ctx, since)
			require.NoError(t, err)

			yesterdayTask := testdb.InsertTask(t, tx, owner, "yesterday", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			old, err := domain.NewReminderSentEvent(yesterdayTask, reminder.DetailsSent, false, since.Add(-time.Minute))
			require.NoError(t, err)
			require.NoError(t, s.AppendReminderEvent(ctx, old))

			todayTask := testdb.InsertTask(t, tx, owner, "today", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			fresh, err := domain.NewReminderSentEvent(todayTask, reminder.DetailsSent, false, since)
			require.NoError(t, err)
			require.NoError(t, s.AppendReminderEvent(ctx, fresh))

			tomorrowTask := testdb.InsertTask(t, tx, owner, "tomorrow", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(time.Hour)))
			next, err := domain.NewReminderSentEvent(tomorrowTask, reminder.DetailsSent, false, since.Add(24*time.Hour))
			require.NoError(t, err)
			require.NoError(t, s.AppendReminderEvent(ctx, next))

			after, err := s.CountReminderEvents(ctx, since)
			require.NoError(t, err)
			assert.Equal(t, before+1, after, "events outside the day are not counted")
		})
	})

	t.Run("check schema", func(t *testing.T) {
		s := postgres.NewReminderStore(db, nil)
		assert.NoError(t, s.CheckSchema(ctx))
	})
}

func TestProcessRemindersAgainstPostgres(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewReminderStore(tx, nil)
		owner := testdb.InsertUser(t, tx, "dispatch@example.com", "Dee")
		now := time.Now().UTC()
		testdb.InsertTask(t, tx, owner, "one", domain.TaskStatusPending, domain.TaskPriorityHigh, at(now.Add(time.Hour)))
		testdb.InsertTask(t, tx, owner, "two", domain.TaskStatusPending, domain.TaskPriorityLow, at(now.Add(2*time.Hour)))

		cfg := reminder.DefaultConfig()
		cfg.EnableEmailSending = false
		cfg.DailyEmailQuota = 10000
		svc := reminder.NewService(s, nil, cfg, nil)

		result, err := svc.ProcessReminders(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.DryRun, 2)

		result, err = svc.ProcessReminders(context.Background())
		require.NoError(t, err)
		assert.Zero(t, result.DryRun, "dry-run reminders are not repeated")
	})
}
