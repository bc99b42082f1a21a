// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package pipeline

import (
	"maps"
	"time"

	"github.com/tomtom215/internrank/internal/cache"
	"github.com/tomtom215/internrank/internal/recommend/algorithms"
	"github.com/tomtom215/internrank/internal/recommend/reranking"
)

// BlendStats describes the outer join of content and collaborative scores.
type BlendStats struct {
	Both              int  `json:"both"`
	ContentOnly       int  `json:"content_only"`
	CFOnly            int  `json:"cf_only"`
	DegenerateContent bool `json:"degenerate_content"`
	DegenerateCF      bool `json:"degenerate_cf"`
}

// RequestStats are counters since the service was built.
type RequestStats struct {
	Requests  int64 `json:"requests"`
	CacheHits int64 `json:"cache_hits"`
	Fallbacks int64 `json:"fallbacks"`
	Failures  int64 `json:"failures"`
}

// Diagnostics summarizes how the service was built and how it has served.
type Diagnostics struct {
	BuiltAt      time.Time `json:"built_at"`
	BuildSeconds float64   `json:"build_seconds"`
	Fingerprint  string    `json:"fingerprint"`

	Persons       int `json:"persons"`
	Opportunities int `json:"opportunities"`
	Events        int `json:"events"`
	Labels        int `json:"labels"`
	LabelledPairs int `json:"labelled_pairs"`
	// TrainingRows counts calibrator rows: one per label, and one with
	// label 0 for each unlabelled pair.
	TrainingRows  int `json:"training_rows"`

	// Stages maps stage name to its duration in seconds.
	Stages map[string]float64 `json:"stages"`

	Vocabulary         algorithms.VocabularyStats `json:"vocabulary"`
	DegenerateCosine   bool                       `json:"degenerate_cosine"`
	DegenerateMetadata bool                       `json:"degenerate_metadata"`

	Matrix        algorithms.MatrixStats `json:"matrix"`
	Solver        string                 `json:"solver"`
	FactorsLoaded bool                   `json:"factors_loaded"`
	DegenerateCF  bool                   `json:"degenerate_cf"`

	Blend      BlendStats             `json:"blend"`
	Calibrator algorithms.EvalMetrics `json:"calibrator"`

	Requests RequestStats `json:"requests"`

	// Cache holds memory-tier counters when slate caching is on.
	Cache *cache.Stats `json:"cache,omitempty"`

	// LastAudit is the audit of the most recent batch, if any.
	LastAudit *reranking.Audit `json:"last_audit,omitempty"`
}

// Diagnostics returns a copy of the build diagnostics with current counters.
func (s *Service) Diagnostics() Diagnostics {
	d := s.diag
	d.Stages = maps.Clone(s.diag.Stages)
	d.Requests = RequestStats{
		Requests:  s.requests.Load(),
		CacheHits: s.cacheHits.Load(),
		Fallbacks: s.fallbacks.Load(),
		Failures:  s.failures.Load(),
	}
	d.LastAudit = s.lastAudit.Load()
	if s.cache != nil {
		st := s.cache.Stats()
		d.Cache = &st
	}
	return d
}
