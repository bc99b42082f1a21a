// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/internrank/internal/recommend"
)

// BaseAlgorithm provides common bookkeeping for fitted stages.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the stage identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the stage has been fitted.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the number of completed fits.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the stage was last fitted.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

func (b *BaseAlgorithm) acquireTrainLock()   { b.mu.Lock() }
func (b *BaseAlgorithm) releaseTrainLock()   { b.mu.Unlock() }
func (b *BaseAlgorithm) acquirePredictLock() { b.mu.RLock() }
func (b *BaseAlgorithm) releasePredictLock() { b.mu.RUnlock() }

// ScoreTable holds at most one score per (person, opportunity) pair in
// dense index space. Pairs that were never set are absent.
type ScoreTable struct {
	PersonIDs      []string
	OpportunityIDs []string

	values  []float64
	present []bool
	count   int
}

// NewScoreTable creates an empty table over the given id universe.
func NewScoreTable(personIDs, opportunityIDs []string) *ScoreTable {
	n := len(personIDs) * len(opportunityIDs)
	return &ScoreTable{
		PersonIDs:      personIDs,
		OpportunityIDs: opportunityIDs,
		values:         make([]float64, n),
		present:        make([]bool, n),
	}
}

// Rows returns the number of persons.
func (t *ScoreTable) Rows() int { return len(t.PersonIDs) }

// Cols returns the number of opportunities.
func (t *ScoreTable) Cols() int { return len(t.OpportunityIDs) }

// Len returns the number of present pairs.
func (t *ScoreTable) Len() int { return t.count }

func (t *ScoreTable) offset(p, o int) int { return p*len(t.OpportunityIDs) + o }

// Set stores a score for pair (p, o).
func (t *ScoreTable) Set(p, o int, v float64) {
	i := t.offset(p, o)
	if !t.present[i] {
		t.present[i] = true
		t.count++
	}
	t.values[i] = v
}

// Get returns the score for pair (p, o) and whether it is present.
func (t *ScoreTable) Get(p, o int) (float64, bool) {
	i := t.offset(p, o)
	return t.values[i], t.present[i]
}

// Range calls fn for every present pair in row-major order.
func (t *ScoreTable) Range(fn func(p, o int, v float64)) {
	cols := len(t.OpportunityIDs)
	for i, ok := range t.present {
		if ok {
			fn(i/cols, i%cols, t.values[i])
		}
	}
}

// clone returns an independent copy.
func (t *ScoreTable) clone() *ScoreTable {
	return &ScoreTable{
		PersonIDs:      t.PersonIDs,
		OpportunityIDs: t.OpportunityIDs,
		values:         append([]float64(nil), t.values...),
		present:        append([]bool(nil), t.present...),
		count:          t.count,
	}
}

// Normalized returns a copy with present values min-max normalized to
// [0,1], and whether the range was degenerate.
func (t *ScoreTable) Normalized() (*ScoreTable, bool) {
	out := t.clone()
	deg := normalizeScores(out.values, out.present)
	return out, deg
}

// sameShape reports whether two tables share an id universe size.
func (t *ScoreTable) sameShape(other *ScoreTable) bool {
	return t.Rows() == other.Rows() && t.Cols() == other.Cols()
}

// normalizeScores min-max normalizes the present values in place.
// A degenerate range sets every present value to 0.5 and returns true.
// Non-finite inputs are treated as absent.
func normalizeScores(values []float64, present []bool) (degenerate bool) {
	minScore, maxScore := math.Inf(1), math.Inf(-1)
	seen := false
	for i, v := range values {
		if present != nil && !present[i] {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		seen = true
		if v < minScore {
			minScore = v
		}
		if v > maxScore {
			maxScore = v
		}
	}
	if !seen {
		return false
	}

	rang := maxScore - minScore
	for i, v := range values {
		if present != nil && !present[i] {
			continue
		}
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			values[i] = 0
		case rang == 0:
			values[i] = recommend.NeutralScore
		default:
			values[i] = (v - minScore) / rang
		}
	}
	return rang == 0
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
