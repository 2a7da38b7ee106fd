// Package metrics holds the prometheus collectors of the medication tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "medtracker"

var (
	// EntriesMaterialized counts log entries created from medicine schedules.
	EntriesMaterialized = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: namespace,
		Name:      "log_entries_materialized_total",
		Help:      "Number of pending log entries created from medicine schedules.",
	})

	// MaterializeRuns counts full materialization runs by result.
	MaterializeRuns = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: namespace,
		Name:      "materialize_runs_total",
		Help:      "Number of materialization runs over all medicines, differentiated by result.",
	}, []string{"result"})

	// DosesRecorded counts dose status changes and ad-hoc doses by status.
	DosesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: namespace,
		Name:      "doses_recorded_total",
		Help:      "Number of doses marked or logged, differentiated by status.",
	}, []string{"status"})
)

// Result label values of MaterializeRuns.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
