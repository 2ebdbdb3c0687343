// Package logger provides structured logging functionality for the worker.
//
// It uses the standard library log/slog package to emit JSON records with a
// configurable level, and carries request- or cycle-scoped loggers through
// context.Context so lower layers log with the caller's attributes.
package logger
