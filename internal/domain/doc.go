// Package domain contains the entities the reminder worker reads and writes:
// tasks and their owners (owned by the task-management API and read-only
// here) and reminder events (owned by the worker, append-only).
package domain
