// Package reminder implements the due-task reminder pipeline.
//
// A Scheduler runs reminder cycles one at a time. Each cycle is handled by a
// Service, which checks the daily quota, asks the Selector for due-soon tasks
// that have not been reminded yet, sends one email per task through an
// EmailSender and appends a reminder event for every task it handled. The
// HealthTracker records cycle outcomes for the health endpoints.
//
// The package depends only on the interfaces declared in interfaces.go; the
// PostgreSQL store, the Mailgun sender, the Redis claimer and the Prometheus
// recorder live under internal/platform and internal/metrics.
package reminder
