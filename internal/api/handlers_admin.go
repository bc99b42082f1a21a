// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/internrank/internal/logging"
	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/models"
	"github.com/tomtom215/internrank/internal/recommend/storage"
)

// AdminRefresh reloads the input data, rebuilds the pipeline and swaps
// the new service in. The rebuild is detached from the request so a
// client disconnect does not abort it. A failed rebuild leaves the
// previous service serving.
//
// POST /api/v1/admin/refresh
func (h *Handler) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	if res := h.refresh.Reserve(); !res.OK() || res.Delay() > 0 {
		retry := time.Minute
		if res.OK() {
			retry = res.Delay()
			res.Cancel()
		}
		metrics.APIRateLimitHits.WithLabelValues("admin_refresh").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		respondError(w, r, http.StatusTooManyRequests, models.CodeRateLimited, "Refresh requested too often", nil)
		return
	}

	var previous string
	if old := h.holder.Load(); old != nil {
		previous = old.Diagnostics().Fingerprint
	}

	ctx := context.WithoutCancel(r.Context())
	if h.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RefreshTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	start := time.Now()
	svc, err := h.holder.Rebuild(ctx)
	metrics.RecordRefresh("manual", err)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("run_id", runID).Msg("manual refresh failed")
		respondError(w, r, http.StatusServiceUnavailable, models.CodeRefreshFailed,
			"Refresh failed, the previous snapshot is still served", err)
		return
	}

	d := svc.Diagnostics()
	logging.Ctx(r.Context()).Info().
		Str("run_id", runID).
		Str("previous_fingerprint", previous).
		Str("fingerprint", d.Fingerprint).
		Dur("duration", time.Since(start)).
		Msg("snapshot refreshed")

	respondSuccess(w, r, models.RefreshResponse{
		RunID:               runID,
		PreviousFingerprint: previous,
		Fingerprint:         d.Fingerprint,
		Changed:             previous != d.Fingerprint,
		BuiltAt:             d.BuiltAt,
		DurationMS:          time.Since(start).Milliseconds(),
	}, models.Metadata{Fingerprint: d.Fingerprint})
}

// storedModelsResponse lists the persisted ALS factor versions.
type storedModelsResponse struct {
	Enabled bool                    `json:"enabled"`
	Models  []storage.ModelMetadata `json:"models"`
}

// AdminModels lists the ALS factor versions kept on disk. Enabled is
// false when factor persistence is off.
//
// GET /api/v1/admin/models
func (h *Handler) AdminModels(w http.ResponseWriter, r *http.Request) {
	svc, err := h.holder.Get()
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}
	list, err := svc.StoredModels(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.CodeInternal, "Could not list stored models", err)
		return
	}
	if list == nil {
		list = []storage.ModelMetadata{}
	}
	respondSuccess(w, r, storedModelsResponse{Enabled: svc.PersistsFactors(), Models: list},
		models.Metadata{Fingerprint: svc.Diagnostics().Fingerprint})
}
