// Package metrics exposes pipeline counters for the ingest run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsMapped counts canonical records produced per entity type.
	RowsMapped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_mapped_total",
		Help: "Canonical records mapped from source rows, by entity type.",
	}, []string{"entity"})

	// Violations counts validation violations per entity type and code.
	Violations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_validation_violations_total",
		Help: "Per-record validation violations, by entity type and code.",
	}, []string{"entity", "code"})

	// Unlinked counts degenerate derived records per derived entity type.
	Unlinked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_unlinked_records_total",
		Help: "Derived records whose counterpart row was never matched.",
	}, []string{"entity"})

	// DerivationsSkipped counts derivations skipped for missing sources.
	DerivationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_derivations_skipped_total",
		Help: "Derivations skipped because a source table was not loaded.",
	}, []string{"entity"})

	// RunDuration observes end-to-end run time.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_run_duration_seconds",
		Help:    "Wall-clock duration of one full ingest run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
