package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts natural-language queries by final outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_queries_total",
			Help: "Total number of natural language queries",
		},
		[]string{"outcome"},
	)
	// GenerationAttempts counts individual model calls by provider and status.
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_generation_attempts_total",
			Help: "Total number of model generation attempts",
		},
		[]string{"provider", "status"},
	)
	// FallbackTotal counts keyword-fallback constructions by result.
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_fallback_total",
			Help: "Total number of keyword fallback constructions",
		},
		[]string{"result"},
	)
	// QueryDuration is the latency of pipeline stages.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_seconds",
			Help:    "Query pipeline stage latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// Outcome label values for QueriesTotal.
const (
	OutcomeOK              = "ok"
	OutcomeEmpty           = "empty"
	OutcomeGenerationError = "generation_error"
	OutcomeRejected        = "rejected"
	OutcomeExecutionError  = "execution_error"
)
