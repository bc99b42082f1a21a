// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered on the default registry at init via promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Pipeline Metrics:
  - pipeline_stage_duration_seconds: Build stage latency (histogram)
    Labels: stage (content, matrix, als, blend, calibrate, predict)
  - pipeline_builds_total: Build outcomes (counter)
    Labels: result
  - pipeline_last_build_timestamp: Unix time of the last good build (gauge)
  - snapshot_rows: Rows per input table (gauge)
    Labels: table
  - pipeline_degenerate_normalizations_total: Collapsed score columns (counter)
    Labels: column
  - pipeline_dropped_events_total: Events with unknown ids (counter)
  - calibrator_holdout_roc_auc: Held-out ROC-AUC of the calibrator (gauge)

Ranking Metrics:
  - rank_duration_seconds: Per-person ranking latency (histogram)
    Labels: mode (single, batch)
  - rank_results_total: Outcomes (counter)
    Labels: result (fair, fallback, cached, error, timeout)
  - fairness_constraint_shortfalls_total: Unmet quotas (counter)
    Labels: attribute

HTTP Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

Cache Metrics:
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total
    Labels: cache_type (memory, badger)

Circuit Breaker Metrics:
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total
    Labels: name

Refresh Metrics:
  - snapshot_refresh_total: Labels trigger (periodic, manual), result

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
