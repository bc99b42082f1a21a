// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package models

import (
	"time"

	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/reranking"
)

// SlateQuery is the query string of GET /api/v1/recommendations/{personID}.
type SlateQuery struct {
	PersonID string `validate:"required,entity_id"`
	TopN     int    `validate:"gte=0,lte=1000"`
}

// BatchRequest is the body of POST /api/v1/recommendations/batch. An empty
// PersonIDs list ranks every person in the snapshot.
type BatchRequest struct {
	PersonIDs []string `json:"person_ids" validate:"omitempty,max=10000,dive,entity_id"`
	TopN      int      `json:"top_n" validate:"gte=0,lte=1000"`
}

// BatchResponse carries the slates and the fairness audit of one batch.
type BatchResponse struct {
	Slates  map[string]recommend.Slate `json:"slates"`
	Unknown []string                   `json:"unknown,omitempty"`
	Audit   reranking.Audit            `json:"audit"`
}

// RefreshResponse reports a completed snapshot rebuild.
type RefreshResponse struct {
	RunID               string    `json:"run_id"`
	PreviousFingerprint string    `json:"previous_fingerprint,omitempty"`
	Fingerprint         string    `json:"fingerprint"`
	Changed             bool      `json:"changed"`
	BuiltAt             time.Time `json:"built_at"`
	DurationMS          int64     `json:"duration_ms"`
}

// HealthStatus is returned by the liveness and readiness probes.
type HealthStatus struct {
	Status      string    `json:"status"`
	Version     string    `json:"version,omitempty"`
	Uptime      float64   `json:"uptime_seconds"`
	Ready       bool      `json:"ready"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitempty"`
	Breaker     string    `json:"breaker,omitempty"`
}
