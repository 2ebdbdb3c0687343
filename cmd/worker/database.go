package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/tasktracker/reminder-worker/internal/config"
	"github.com/tasktracker/reminder-worker/internal/platform/postgres"
	"github.com/tasktracker/reminder-worker/internal/redact"
)

const dbConnectTimeout = 10 * time.Second

// openDatabase opens the connection pool and verifies it with a ping.
func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %s", redact.Error(err))
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		log.Error("database connection failed",
			slog.String("url", redact.URL(cfg.Database.URL)),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	log.Info("database connection established")
	return db, nil
}

// setupDatabase opens the database and checks that the task schema exists.
// The worker never migrates on startup; the API owns the schema.
func setupDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sql.DB, error) {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	if err := postgres.NewReminderStore(db, log).CheckSchema(checkCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database schema check failed: %w", err)
	}

	log.Info("database tables verified")
	return db, nil
}
