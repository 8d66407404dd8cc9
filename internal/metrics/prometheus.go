// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the availability and aggregation engine.
var (
	// Counters.
	RangeQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "range_queries_total",
			Help: "Total number of range aggregation queries served",
		},
		[]string{"kind", "status"},
	)

	ValidationConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_conflicts_total",
			Help: "Total number of writes rejected by overlap or status validation",
		},
		[]string{"entity", "field"},
	)

	RedmineImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redmine_imports_total",
			Help: "Total number of Redmine time entry import runs",
		},
		[]string{"status"},
	)

	RedmineEntriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redmine_entries_skipped_total",
			Help: "Total time entries dropped during import",
		},
		[]string{"reason"},
	)

	RedmineEntriesImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redmine_entries_imported_total",
			Help: "Total time entries persisted as performances",
		},
	)

	// Gauges.
	TimesheetsProvisioned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timesheets_provisioned",
			Help: "Number of timesheets created by the last provisioning run",
		},
	)

	// Histograms.
	RangeQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "range_query_duration_seconds",
			Help:    "Range aggregation query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"kind"},
	)

	RedmineRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redmine_request_duration_seconds",
			Help:    "Redmine API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"endpoint", "status"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)
)
