// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/models"
)

// HealthLive answers 200 while the process is up, whether or not a
// pipeline has been built.
//
// GET /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)
	respondSuccess(w, r, models.HealthStatus{
		Status:  "alive",
		Version: h.cfg.Version,
		Uptime:  uptime,
		Ready:   h.holder.Ready(),
	}, models.Metadata{})
}

// HealthReady answers 200 once a pipeline is published and the ranking
// circuit is not open, 503 otherwise.
//
// GET /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:  "ready",
		Version: h.cfg.Version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Breaker: h.breaker.State(),
	}
	if svc := h.holder.Load(); svc != nil {
		d := svc.Diagnostics()
		status.Fingerprint = d.Fingerprint
		status.BuiltAt = d.BuiltAt
		status.Ready = status.Breaker != "open"
	}

	code := http.StatusOK
	if !status.Ready {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now(), Fingerprint: status.Fingerprint},
	})
}
