package reminder

import (
	"sync"
	"time"
)

// HealthStatus is a point-in-time view of the worker's cycle history.
type HealthStatus struct {
	LastSuccessfulRun *time.Time `json:"lastSuccessfulRun"`
	FailedJobsCount   int        `json:"failedJobsCount"`
	TotalJobsRun      int        `json:"totalJobsRun"`
	IsHealthy         bool       `json:"isHealthy"`
}

// HealthTracker counts cycle outcomes. It is safe for concurrent use.
type HealthTracker struct {
	mu          sync.RWMutex
	lastSuccess *time.Time
	failed      int
	total       int
	staleAfter  time.Duration
	now         func() time.Time
}

// NewHealthTracker creates a tracker that reports unhealthy once the last
// successful cycle is older than staleAfter.
func NewHealthTracker(staleAfter time.Duration) *HealthTracker {
	return NewHealthTrackerWithClock(staleAfter, time.Now)
}

// NewHealthTrackerWithClock is NewHealthTracker with an explicit time source.
func NewHealthTrackerWithClock(staleAfter time.Duration, now func() time.Time) *HealthTracker {
	if staleAfter <= 0 {
		staleAfter = DefaultConfig().HealthStaleAfter
	}
	if now == nil {
		now = time.Now
	}
	return &HealthTracker{staleAfter: staleAfter, now: now}
}

// RecordSuccess marks a cycle that completed without error.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.now().UTC()
	h.lastSuccess = &t
	h.total++
}

// RecordFailure marks a cycle that aborted.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed++
	h.total++
}

// Snapshot returns the current status.
func (h *HealthTracker) Snapshot() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		FailedJobsCount: h.failed,
		TotalJobsRun:    h.total,
	}
	if h.lastSuccess != nil {
		last := *h.lastSuccess
		status.LastSuccessfulRun = &last
		status.IsHealthy = h.now().Sub(last) < h.staleAfter
	}
	return status
}
