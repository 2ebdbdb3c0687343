// Package main is the entry point for the TaskTracker reminder worker, which
// emails task owners shortly before their tasks fall due.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tasktracker/reminder-worker/internal/config"
	"github.com/tasktracker/reminder-worker/internal/platform/logger"
	"github.com/tasktracker/reminder-worker/internal/platform/postgres"
)

// options holds the command-line flags.
type options struct {
	configFile string
	migrate    string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "path to a config file (default: ./config.yaml if present)")
	fs.StringVar(&opts.migrate, "migrate", "", "run a migration command (up, down, status, version, redo, reset) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("reminder worker exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.migrate != "" {
		return runMigrations(ctx, cfg, opts.migrate, log)
	}

	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	log.Info("executing migrations", slog.String("command", command))
	if err := postgres.Migrate(ctx, db, command, log); err != nil {
		return err
	}
	log.Info("migrations completed", slog.String("command", command))
	return nil
}
