package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tasktracker/reminder-worker/internal/api/shared"
	"github.com/tasktracker/reminder-worker/internal/redact"
	"github.com/tasktracker/reminder-worker/internal/reminder"
	"github.com/tasktracker/reminder-worker/internal/store"
)

// Health check status values.
const (
	StatusHealthy   = "Healthy"
	StatusUnhealthy = "Unhealthy"
)

// Check names reported by /health.
const (
	CheckWorkerHealth = "worker_health"
	CheckDatabase     = "database"
)

// DefaultCheckTimeout bounds each individual probe.
const DefaultCheckTimeout = 5 * time.Second

// HealthCheck is the result of one probe.
type HealthCheck struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	DurationMs  int64  `json:"durationMs"`
}

// HealthReport aggregates all probes.
type HealthReport struct {
	Status          string        `json:"status"`
	Checks          []HealthCheck `json:"checks"`
	TotalDurationMs int64         `json:"totalDurationMs"`
}

// WorkerHealth exposes the worker's cycle history.
type WorkerHealth interface {
	Snapshot() reminder.HealthStatus
}

// HealthHandler serves the health endpoints.
type HealthHandler struct {
	worker  WorkerHealth
	db      store.Pinger
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil, in which case the
// database check is omitted.
func NewHealthHandler(worker WorkerHealth, db store.Pinger, log *slog.Logger) *HealthHandler {
	if worker == nil {
		panic("worker health cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{
		worker:  worker,
		db:      db,
		timeout: DefaultCheckTimeout,
		logger:  log.With(slog.String("component", "health_handler")),
	}
}

// Health runs every probe and reports 200 only when all of them pass.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	checks := []HealthCheck{h.checkWorker()}
	if h.db != nil {
		checks = append(checks, h.checkDatabase(r.Context()))
	}

	report := HealthReport{
		Status:          StatusHealthy,
		Checks:          checks,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}
	for _, c := range checks {
		if c.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}

	shared.RespondWithJSON(w, r, statusCode(report.Status), report)
}

// Worker returns the raw health snapshot.
func (h *HealthHandler) Worker(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.worker.Snapshot())
}

// Database reports only the database probe.
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "database check not configured")
		return
	}
	check := h.checkDatabase(r.Context())
	report := HealthReport{
		Status:          check.Status,
		Checks:          []HealthCheck{check},
		TotalDurationMs: check.DurationMs,
	}
	shared.RespondWithJSON(w, r, statusCode(report.Status), report)
}

func (h *HealthHandler) checkWorker() HealthCheck {
	start := time.Now()
	snap := h.worker.Snapshot()

	status := StatusUnhealthy
	if snap.IsHealthy {
		status = StatusHealthy
	}

	return HealthCheck{
		Name:        CheckWorkerHealth,
		Status:      status,
		Description: describeWorker(snap),
		DurationMs:  time.Since(start).Milliseconds(),
	}
}

func describeWorker(snap reminder.HealthStatus) string {
	lastRun := "never"
	if snap.LastSuccessfulRun != nil {
		lastRun = snap.LastSuccessfulRun.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("Last successful run: %s, failed jobs: %d, total jobs: %d",
		lastRun, snap.FailedJobsCount, snap.TotalJobsRun)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	check := HealthCheck{Name: CheckDatabase, Status: StatusHealthy, Description: "Database reachable"}
	if err := h.db.PingContext(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Description = redact.Error(err)
		h.logger.WarnContext(ctx, "database health check failed", slog.String("error", check.Description))
	}
	check.DurationMs = time.Since(start).Milliseconds()
	return check
}

func statusCode(status string) int {
	if status == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
