// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests tracks completed upstream calls by endpoint and outcome
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_upstream_requests_total",
			Help: "Total number of completed upstream requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamAttempts tracks individual request attempts, retries included
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_upstream_attempts_total",
			Help: "Total number of upstream request attempts",
		},
		[]string{"endpoint"},
	)

	// UpstreamRetries tracks scheduled retries per endpoint
	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_upstream_retries_total",
			Help: "Total number of upstream retries scheduled",
		},
		[]string{"endpoint"},
	)

	// UpstreamLatency tracks per-attempt latency
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictdash_upstream_latency_seconds",
			Help:    "Upstream request attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Failures tracks classified failures by kind
	Failures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_failures_total",
			Help: "Total number of classified failures",
		},
		[]string{"kind"},
	)

	// CacheHits tracks response cache hits per entity
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"entity"},
	)

	// CacheMisses tracks response cache misses per entity
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"entity"},
	)

	// FetchTransitions tracks state machine phase transitions
	FetchTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_fetch_transitions_total",
			Help: "Total number of fetch state machine transitions",
		},
		[]string{"machine", "phase"},
	)
)
