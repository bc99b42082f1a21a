// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Build Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline construction stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"stage"}, // "content", "matrix", "als", "blend", "calibrate", "predict"
	)

	PipelineBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_builds_total",
			Help: "Total number of pipeline builds",
		},
		[]string{"result"}, // "success", "failure"
	)

	PipelineLastBuild = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_build_timestamp",
			Help: "Unix timestamp of the last successful pipeline build",
		},
	)

	SnapshotRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshot_rows",
			Help: "Number of rows per input table in the active snapshot",
		},
		[]string{"table"}, // "persons", "opportunities", "events", "labels"
	)

	DegenerateNormalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_degenerate_normalizations_total",
			Help: "Score columns whose min-max range collapsed to a single value",
		},
		[]string{"column"},
	)

	DroppedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_dropped_events_total",
			Help: "Interaction events dropped for referencing unknown ids",
		},
	)

	CalibratorROCAUC = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calibrator_holdout_roc_auc",
			Help: "Held-out ROC-AUC of the success calibrator from the last build",
		},
	)

	// Ranking Metrics
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rank_duration_seconds",
			Help:    "Duration of per-person ranking in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"}, // "single", "batch"
	)

	RankResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rank_results_total",
			Help: "Ranking outcomes by result",
		},
		[]string{"result"}, // "fair", "fallback", "cached", "error", "timeout"
	)

	ConstraintShortfalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairness_constraint_shortfalls_total",
			Help: "Fairness quotas that could not be met",
		},
		[]string{"attribute"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "memory", "badger"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or capacity)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Refresh Metrics
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_refresh_total",
			Help: "Snapshot refresh attempts by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: "periodic", "manual"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordBuild records a pipeline build outcome.
func RecordBuild(err error) {
	if err != nil {
		PipelineBuilds.WithLabelValues("failure").Inc()
		return
	}
	PipelineBuilds.WithLabelValues("success").Inc()
	PipelineLastBuild.Set(float64(time.Now().Unix()))
}

// UpdateSnapshotRows sets the per-table row gauges.
func UpdateSnapshotRows(persons, opportunities, events, labels int) {
	SnapshotRows.WithLabelValues("persons").Set(float64(persons))
	SnapshotRows.WithLabelValues("opportunities").Set(float64(opportunities))
	SnapshotRows.WithLabelValues("events").Set(float64(events))
	SnapshotRows.WithLabelValues("labels").Set(float64(labels))
}

// RecordRank records one ranking call.
func RecordRank(mode, result string, duration time.Duration) {
	RankDuration.WithLabelValues(mode).Observe(duration.Seconds())
	RankResults.WithLabelValues(result).Inc()
}

// RecordShortfall counts an unmet fairness quota.
func RecordShortfall(attribute string) {
	ConstraintShortfalls.WithLabelValues(attribute).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup counts a hit or miss for one cache tier.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordRefresh records a snapshot refresh attempt.
func RecordRefresh(trigger string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RefreshRuns.WithLabelValues(trigger, result).Inc()
}
