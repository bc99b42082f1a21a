// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"fmt"

	"github.com/tomtom215/internrank/internal/recommend"
)

// HybridBlender merges content and collaborative tables.
//
// The merge is an outer join on pair identity over the shared id universe:
// a pair present in only one table keeps that score and gets 0.0 for the
// other, flagged in the provenance fields. Both columns are re-normalized
// to [0,1] across the merged set, then combined as
//
//	hybrid = w_content * content_norm + w_cf * cf_norm
//
// in one pass over the pairs.
type HybridBlender struct {
	weights recommend.BlendWeights
}

// NewHybridBlender validates that the weights sum to exactly 1.
func NewHybridBlender(w recommend.BlendWeights) (*HybridBlender, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &HybridBlender{weights: w}, nil
}

// Weights returns the blend weights.
func (b *HybridBlender) Weights() recommend.BlendWeights { return b.weights }

// BlendResult is the blended pair table plus normalization diagnostics.
type BlendResult struct {
	// Pairs is row-major over (person, opportunity) for every pair present
	// in at least one source.
	Pairs []recommend.PairScore

	// Index maps a pair key to its position in Pairs.
	Index map[recommend.PairKey]int

	DegenerateContent bool
	DegenerateCF      bool

	ContentOnly int
	CFOnly      int
	Both        int
}

// Blend joins content and cf. Either table may be nil (no signal at all).
// When both are present they must share an id universe.
func (b *HybridBlender) Blend(content, cf *ScoreTable) (*BlendResult, error) {
	base := content
	if base == nil {
		base = cf
	}
	if base == nil {
		return &BlendResult{Index: map[recommend.PairKey]int{}}, nil
	}
	if content != nil && cf != nil && !content.sameShape(cf) {
		return nil, fmt.Errorf("blend: content table is %dx%d, cf table is %dx%d",
			content.Rows(), content.Cols(), cf.Rows(), cf.Cols())
	}

	n := len(base.values)
	contentVals := make([]float64, n)
	cfVals := make([]float64, n)
	hasContent := make([]bool, n)
	hasCF := make([]bool, n)
	if content != nil {
		copy(contentVals, content.values)
		copy(hasContent, content.present)
	}
	if cf != nil {
		copy(cfVals, cf.values)
		copy(hasCF, cf.present)
	}

	merged := make([]bool, n)
	for i := range merged {
		merged[i] = hasContent[i] || hasCF[i]
		if !hasContent[i] {
			contentVals[i] = 0
		}
		if !hasCF[i] {
			cfVals[i] = 0
		}
	}

	contentNorm := append([]float64(nil), contentVals...)
	cfNorm := append([]float64(nil), cfVals...)
	res := &BlendResult{
		DegenerateContent: normalizeScores(contentNorm, merged),
		DegenerateCF:      normalizeScores(cfNorm, merged),
	}
	// An absent signal contributes nothing, even when its column collapsed to 0.5.
	for i := range merged {
		if !hasContent[i] {
			contentNorm[i] = 0
		}
		if !hasCF[i] {
			cfNorm[i] = 0
		}
	}

	cols := base.Cols()
	res.Pairs = make([]recommend.PairScore, 0, n)
	res.Index = make(map[recommend.PairKey]int, n)
	wc, wf := b.weights.Content, b.weights.CF
	for i := 0; i < n; i++ {
		if !merged[i] {
			continue
		}
		key := recommend.PairKey{
			PersonID:      base.PersonIDs[i/cols],
			OpportunityID: base.OpportunityIDs[i%cols],
		}
		ps := recommend.PairScore{
			PairKey:         key,
			ContentScore:    recommend.FillScore(contentVals[i]),
			CFScore:         recommend.FillScore(cfVals[i]),
			ContentNorm:     recommend.FillScore(contentNorm[i]),
			CFNorm:          recommend.FillScore(cfNorm[i]),
			HasContentScore: hasContent[i],
			HasCFScore:      hasCF[i],
		}
		ps.HybridScore = recommend.Clamp01(wc*ps.ContentNorm + wf*ps.CFNorm)

		switch {
		case ps.HasContentScore && ps.HasCFScore:
			res.Both++
		case ps.HasContentScore:
			res.ContentOnly++
		default:
			res.CFOnly++
		}
		res.Index[key] = len(res.Pairs)
		res.Pairs = append(res.Pairs, ps)
	}
	return res, nil
}

// Reblend recomputes hybrid scores from the stored normalized columns with
// different weights, leaving the input untouched.
func Reblend(pairs []recommend.PairScore, w recommend.BlendWeights) ([]float64, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, len(pairs))
	for i := range pairs {
		out[i] = recommend.Clamp01(w.Content*pairs[i].ContentNorm + w.CF*pairs[i].CFNorm)
	}
	return out, nil
}
