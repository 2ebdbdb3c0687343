package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tasktracker/reminder-worker/internal/api"
	"github.com/tasktracker/reminder-worker/internal/config"
	"github.com/tasktracker/reminder-worker/internal/events"
	"github.com/tasktracker/reminder-worker/internal/metrics"
	"github.com/tasktracker/reminder-worker/internal/platform/amqp"
	"github.com/tasktracker/reminder-worker/internal/platform/mailgun"
	"github.com/tasktracker/reminder-worker/internal/platform/postgres"
	"github.com/tasktracker/reminder-worker/internal/platform/redis"
	"github.com/tasktracker/reminder-worker/internal/redact"
	"github.com/tasktracker/reminder-worker/internal/reminder"
)

// shutdownTimeout bounds HTTP server shutdown.
const shutdownTimeout = 10 * time.Second

// application holds the worker's dependencies and owns their cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry  *prometheus.Registry
	health    *reminder.HealthTracker
	scheduler *reminder.Scheduler
	router    http.Handler

	// optional collaborators, closed on shutdown
	publisher   *amqp.Publisher
	redisClient interface{ Close() error }
}

// reminderConfig converts the loaded worker settings into pipeline settings.
func reminderConfig(w config.WorkerConfig) reminder.Config {
	return reminder.Config{
		CheckInterval:      w.CheckInterval(),
		Lookahead:          w.Lookahead(),
		MaxEmailsPerRun:    w.MaxEmailsPerRun,
		DailyEmailQuota:    w.DailyEmailQuota,
		EnableEmailSending: w.EnableEmailSending,
		StartupDelay:       w.StartupDelay(),
		SendDelay:          w.SendDelay(),
		SendTimeout:        w.SendTimeout(),
		HealthStaleAfter:   w.HealthStaleAfter(),
	}
}

// newApplication wires every component. db must already be connected.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   log,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workerMetrics, err := metrics.New(app.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(log)
	if cfg.AMQP.Enabled() {
		app.publisher, err = amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		emitter.RegisterHandler(app.publisher)
		log.Info("publishing reminder events",
			slog.String("broker", redact.URL(cfg.AMQP.URL)),
			slog.String("exchange", cfg.AMQP.Exchange))
	}

	opts := []reminder.ServiceOption{
		reminder.WithEventEmitter(emitter),
		reminder.WithMetrics(workerMetrics),
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(cfg.Redis)
		app.redisClient = client
		claimer := redis.NewClaimer(client, cfg.Redis.ClaimTTL(), log)
		if err := claimer.Ping(ctx); err != nil {
			app.closeClients()
			return nil, fmt.Errorf("failed to connect to redis: %s", redact.Error(err))
		}
		opts = append(opts, reminder.WithClaimer(claimer))
		log.Info("send claims enabled", slog.Duration("ttl", cfg.Redis.ClaimTTL()))
	}

	var sender reminder.EmailSender
	if cfg.Worker.EnableEmailSending {
		sender, err = mailgun.NewSender(cfg.Mailgun, &http.Client{Timeout: cfg.Worker.SendTimeout()}, log)
		if err != nil {
			app.closeClients()
			return nil, fmt.Errorf("failed to initialize email sender: %w", err)
		}
	} else {
		log.Warn("email sending disabled, running in dry-run mode")
	}

	rcfg := reminderConfig(cfg.Worker)
	taskStore := postgres.NewReminderStore(db, log)
	service := reminder.NewService(taskStore, sender, rcfg, log, opts...)

	app.health = reminder.NewHealthTracker(rcfg.HealthStaleAfter)
	app.scheduler = reminder.NewScheduler(service, app.health, workerMetrics, rcfg, log)

	app.router = api.NewRouter(
		api.NewHealthHandler(app.health, db, log),
		promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}),
		log,
	)

	log.Info("reminder worker initialized",
		slog.Duration("check_interval", rcfg.CheckInterval),
		slog.Duration("lookahead", rcfg.Lookahead),
		slog.Int("max_emails_per_run", rcfg.MaxEmailsPerRun),
		slog.Int("daily_email_quota", rcfg.DailyEmailQuota),
		slog.Bool("email_sending", rcfg.EnableEmailSending))
	return app, nil
}

// Run starts the monitoring server and the scheduler and blocks until ctx is
// cancelled or the server fails. Resources are released before it returns.
func (app *application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.cleanup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.logger.Info("starting monitoring server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.scheduler.Run(ctx); err != nil {
			app.logger.Error("scheduler stopped with error", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	app.logger.Info("shutting down reminder worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	wg.Wait()

	select {
	case err := <-serverErr:
		return fmt.Errorf("monitoring server failed: %w", err)
	default:
		app.logger.Info("reminder worker stopped")
		return nil
	}
}

// cleanup releases external connections, the database included.
func (app *application) cleanup() {
	app.closeClients()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
}

// closeClients closes the broker and Redis connections. The database is left
// to the caller that opened it.
func (app *application) closeClients() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}
}
