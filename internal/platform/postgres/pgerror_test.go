package postgres

import "github.com/jackc/pgx/v5/pgconn"

func fakeUniqueViolation() error {
	return &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "uq_reminder_events_task_reminder_sent"}
}
