// Package metrics exposes prometheus instrumentation for the sync engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync metrics
var (
	// SyncRunsTotal tracks sync phases by outcome.
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsync_sync_runs_total",
			Help: "Total number of sync phase runs by integration, phase and status",
		},
		[]string{"integration", "phase", "status"},
	)

	// SyncDuration tracks sync phase duration.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghsync_sync_duration_seconds",
			Help:    "Sync phase duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"integration", "phase"},
	)

	// FindingsUpserted tracks reconciled findings by kind.
	FindingsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsync_findings_upserted_total",
			Help: "Total number of findings upserted by integration and kind",
		},
		[]string{"integration", "kind"},
	)

	// ResolutionFailures tracks alerts with unmapped (state, reason) pairs.
	ResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsync_resolution_failures_total",
			Help: "Total number of alerts whose lifecycle state could not be resolved",
		},
		[]string{"integration", "kind"},
	)
)

// API client metrics
var (
	// APIRequestsTotal tracks external API calls by status class.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsync_api_requests_total",
			Help: "Total number of GitHub API requests by resource and status",
		},
		[]string{"resource", "status"},
	)
)
