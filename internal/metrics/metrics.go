// Package metrics exposes the reminder worker's Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tasktracker/reminder-worker/internal/reminder"
)

const namespace = "tasktracker_worker"

// Metrics holds all Prometheus metrics of the worker.
type Metrics struct {
	// Counters
	remindersProcessed prometheus.Counter
	remindersSent      prometheus.Counter
	remindersFailed    prometheus.Counter
	remindersSkipped   prometheus.Counter
	remindersDryRun    prometheus.Counter
	cycles             prometheus.Counter
	errors             prometheus.Counter

	// Gauges
	lastRun         prometheus.Gauge
	emailsRemaining prometheus.Gauge
	tasksDue        prometheus.Gauge

	// Histograms
	cycleDuration prometheus.Histogram
}

var _ reminder.MetricsRecorder = (*Metrics)(nil)

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// New creates the worker metrics and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		remindersProcessed: counter("reminders_processed_total", "Total number of reminder candidates processed"),
		remindersSent:      counter("reminders_sent_total", "Total number of reminder emails sent"),
		remindersFailed:    counter("reminders_failed_total", "Total number of reminder emails that failed to send"),
		remindersSkipped:   counter("reminders_skipped_total", "Total number of reminder candidates skipped"),
		remindersDryRun:    counter("reminders_dry_run_total", "Total number of reminders recorded without sending"),
		cycles:             counter("cycles_total", "Total number of worker cycles executed"),
		errors:             counter("errors_total", "Total number of worker cycles that failed"),

		lastRun:         gauge("last_run_timestamp", "Unix timestamp of the last worker cycle"),
		emailsRemaining: gauge("emails_remaining_today", "Number of emails remaining in today's quota"),
		tasksDue:        gauge("tasks_due_within_window", "Number of active tasks due within the lookahead window"),

		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of worker cycles in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.remindersProcessed,
		m.remindersSent,
		m.remindersFailed,
		m.remindersSkipped,
		m.remindersDryRun,
		m.cycles,
		m.errors,
		m.lastRun,
		m.emailsRemaining,
		m.tasksDue,
		m.cycleDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// RecordReminder implements reminder.MetricsRecorder.
func (m *Metrics) RecordReminder(outcome reminder.Outcome) {
	m.remindersProcessed.Inc()
	switch outcome {
	case reminder.OutcomeSent:
		m.remindersSent.Inc()
	case reminder.OutcomeFailed:
		m.remindersFailed.Inc()
	case reminder.OutcomeSkipped:
		m.remindersSkipped.Inc()
	case reminder.OutcomeDuplicate:
		// The email went out even though the event belongs to another worker.
		m.remindersSent.Inc()
		m.remindersSkipped.Inc()
	case reminder.OutcomeDryRun:
		m.remindersDryRun.Inc()
	}
}

// ObserveCycle implements reminder.MetricsRecorder.
func (m *Metrics) ObserveCycle(duration time.Duration, err error) {
	m.cycles.Inc()
	if err != nil {
		m.errors.Inc()
	}
	m.lastRun.SetToCurrentTime()
	m.cycleDuration.Observe(duration.Seconds())
}

// SetEmailsRemaining implements reminder.MetricsRecorder.
func (m *Metrics) SetEmailsRemaining(n int) {
	m.emailsRemaining.Set(float64(n))
}

// SetTasksDue implements reminder.MetricsRecorder.
func (m *Metrics) SetTasksDue(n int) {
	m.tasksDue.Set(float64(n))
}
