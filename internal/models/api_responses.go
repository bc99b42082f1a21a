// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package models

import (
	"time"
)

// APIResponse is the envelope returned by every JSON endpoint.
//
// Status is "success" with Data populated, or "error" with Error populated.
//
//	{
//	  "status": "success",
//	  "data": {"person_id": "STU0001", "k": 10, "entries": [...], "fallback": false},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes how the response was produced.
//
// Fingerprint identifies the snapshot the answer was computed from, so
// clients can tell when a refresh changed the underlying data.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	TimedOut    bool      `json:"timed_out,omitempty"`
}

// APIError is a machine-readable failure.
//
// Codes:
//   - VALIDATION_ERROR: malformed path, query or body
//   - NOT_FOUND: unknown person
//   - MODEL_UNAVAILABLE: no pipeline built yet or the circuit breaker is open
//   - RATE_LIMITED: manual refresh requested too often
//   - REFRESH_FAILED: rebuild failed, previous snapshot still served
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes used by the api package.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeRefreshFailed    = "REFRESH_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
