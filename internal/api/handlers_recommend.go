// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/internrank/internal/logging"
	"github.com/tomtom215/internrank/internal/models"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/pipeline"
)

// maxBatchBody caps the batch request body.
const maxBatchBody = 1 << 20

// Recommendations returns the fairness-aware slate for one person.
//
// GET /api/v1/recommendations/{personID}?top_n=N
//
// A request that exceeds the request timeout gets 200 with an empty slate
// marked fallback, and metadata.timed_out set.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := models.SlateQuery{PersonID: chi.URLParam(r, "personID")}
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, models.CodeValidation, "top_n must be an integer", nil)
			return
		}
		q.TopN = n
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	svc, err := h.holder.Get()
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}

	slate, timedOut, err := runWithTimeout(r.Context(), h.cfg.RequestTimeout, func(ctx context.Context) (recommend.Slate, error) {
		res, err := h.breaker.Execute(func() (any, error) {
			return svc.Rank(ctx, q.PersonID, q.TopN)
		})
		if err != nil {
			return recommend.Slate{}, err
		}
		slate, ok := res.(recommend.Slate)
		if !ok {
			return recommend.Slate{}, fmt.Errorf("rank: unexpected result type %T", res)
		}
		return slate, nil
	})
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}

	meta := models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Fingerprint: svc.Diagnostics().Fingerprint,
	}
	if timedOut {
		logging.Ctx(r.Context()).Warn().
			Str("person_id", sanitizeLogValue(q.PersonID)).
			Dur("timeout", h.cfg.RequestTimeout).
			Msg("ranking timed out, returning empty fallback slate")
		slate = recommend.EmptySlate(q.PersonID, svc.SlateSize(q.TopN))
		meta.TimedOut = true
	}
	respondSuccess(w, r, slate, meta)
}

// RecommendationsBatch ranks several persons and audits the batch. An
// empty person_ids list ranks everyone in the snapshot.
//
// POST /api/v1/recommendations/batch {"person_ids": [...], "top_n": N}
//
// On timeout every known person gets an empty fallback slate.
func (h *Handler) RecommendationsBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.BatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, models.CodeValidation, "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	svc, err := h.holder.Get()
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}

	res, timedOut, err := runWithTimeout(r.Context(), h.cfg.RequestTimeout, func(ctx context.Context) (*pipeline.BatchResult, error) {
		out, err := h.breaker.Execute(func() (any, error) {
			if len(req.PersonIDs) == 0 {
				return svc.RankAll(ctx, req.TopN)
			}
			return svc.RankBatch(ctx, req.PersonIDs, req.TopN)
		})
		if err != nil {
			return nil, err
		}
		br, ok := out.(*pipeline.BatchResult)
		if !ok {
			return nil, fmt.Errorf("rank batch: unexpected result type %T", out)
		}
		return br, nil
	})
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}

	meta := models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Fingerprint: svc.Diagnostics().Fingerprint,
	}
	if timedOut {
		logging.Ctx(r.Context()).Warn().
			Int("persons", len(req.PersonIDs)).
			Dur("timeout", h.cfg.RequestTimeout).
			Msg("batch ranking timed out, returning empty fallback slates")
		res = emptyBatch(svc, req.PersonIDs, req.TopN)
		meta.TimedOut = true
	}
	respondSuccess(w, r, models.BatchResponse{
		Slates:  res.Slates,
		Unknown: res.Unknown,
		Audit:   res.Audit,
	}, meta)
}

// emptyBatch builds the timeout answer for a batch.
func emptyBatch(svc *pipeline.Service, ids []string, topN int) *pipeline.BatchResult {
	if len(ids) == 0 {
		ids = svc.PersonIDs()
	}
	k := svc.SlateSize(topN)
	res := &pipeline.BatchResult{Slates: make(map[string]recommend.Slate, len(ids))}
	for _, id := range ids {
		if !svc.HasPerson(id) {
			res.Unknown = append(res.Unknown, id)
			continue
		}
		res.Slates[id] = recommend.EmptySlate(id, k)
	}
	return res
}

// diagnosticsResponse adds serving state to the pipeline diagnostics.
type diagnosticsResponse struct {
	pipeline.Diagnostics
	Breaker string `json:"breaker"`
}

// Diagnostics reports how the current service was built: matrix stats,
// calibrator metrics, stage timings and the last batch audit.
//
// GET /api/v1/diagnostics
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	svc, err := h.holder.Get()
	if err != nil {
		respondPipelineError(w, r, err)
		return
	}
	d := svc.Diagnostics()
	respondSuccess(w, r, diagnosticsResponse{Diagnostics: d, Breaker: h.breaker.State()}, models.Metadata{
		Fingerprint: d.Fingerprint,
	})
}
