// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/recommend"
)

// maxSlateSize bounds per-person allocations regardless of the requested K.
const maxSlateSize = 10000

// Candidate is one scored opportunity for a person.
type Candidate struct {
	OpportunityID string
	SuccessProb   float64

	// Opportunity supplies the cohort values constraints match against.
	// A nil opportunity matches no cohort.
	Opportunity *recommend.Opportunity

	// Ref is an opaque caller index carried through to the pick.
	Ref int
}

// Pick is a candidate placed on the slate.
type Pick struct {
	Candidate
	Rank    int
	Boosted bool
}

// Result is a re-ranked slate for one person.
type Result struct {
	PersonID    string
	Picks       []Pick
	Constraints []recommend.ConstraintResult
}

// Unsatisfied returns the constraints whose quota was not met.
func (r *Result) Unsatisfied() []recommend.ConstraintResult {
	var out []recommend.ConstraintResult
	for _, c := range r.Constraints {
		if !c.Satisfied {
			out = append(out, c)
		}
	}
	return out
}

// SortCandidates orders candidates by success probability descending,
// breaking ties by opportunity id ascending.
func SortCandidates(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := cmp.Compare(b.SuccessProb, a.SuccessProb); c != 0 {
			return c
		}
		return cmp.Compare(a.OpportunityID, b.OpportunityID)
	})
}

// TopK returns the first k distinct candidates by score. It is the
// baseline ranking and the fallback when fairness re-ranking fails.
func TopK(personID string, cands []Candidate, k int) Result {
	pool := dedupe(cands)
	k = boundK(k, len(pool))
	res := Result{PersonID: personID, Picks: make([]Pick, k)}
	for i := 0; i < k; i++ {
		res.Picks[i] = Pick{Candidate: pool[i], Rank: i + 1}
	}
	return res
}

// FairReranker enforces minimum cohort representation on each slate.
//
// For every constraint, in priority order, it takes the person's own
// cohort for the attribute and greedily moves up to ceil(share*K) of the
// best remaining candidates whose opportunity matches that cohort onto
// the slate. A quota that cannot be filled is recorded, never fatal.
// Remaining slots are then filled from the pool by score. Ranks follow
// placement order, so constraint picks precede fill picks.
type FairReranker struct {
	k           int
	constraints []recommend.FairnessConstraint
	logger      zerolog.Logger

	// rerankFn replaces Rerank inside batch runs; tests inject failures.
	rerankFn func(context.Context, *recommend.Person, []Candidate, int) (Result, error)
}

// NewFairReranker validates cfg and returns a re-ranker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFairReranker(cfg recommend.FairnessConfig, logger zerolog.Logger) (*FairReranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FairReranker{
		k:           cfg.K,
		constraints: slices.Clone(cfg.Constraints),
		logger:      logger.With().Str("component", "fairness").Logger(),
	}, nil
}

// K returns the configured slate size.
func (r *FairReranker) K() int { return r.k }

// Constraints returns a copy of the ordered constraints.
func (r *FairReranker) Constraints() []recommend.FairnessConstraint {
	return slices.Clone(r.constraints)
}

// Rerank builds a fair slate of at most k entries (k <= 0 uses the
// configured K). Duplicate opportunity ids keep their best-scored entry.
func (r *FairReranker) Rerank(ctx context.Context, person *recommend.Person, cands []Candidate, k int) (Result, error) {
	if person == nil {
		return Result{}, fmt.Errorf("rerank: nil person")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if k <= 0 {
		k = r.k
	}

	pool := dedupe(cands)
	// Quotas are taken against the requested size, not the pool size.
	requested := boundK(k, maxSlateSize)
	k = boundK(k, len(pool))
	res := Result{
		PersonID:    person.ID,
		Picks:       make([]Pick, 0, k),
		Constraints: make([]recommend.ConstraintResult, 0, len(r.constraints)),
	}
	taken := make([]bool, len(pool))

	place := func(i int, boosted bool) {
		taken[i] = true
		res.Picks = append(res.Picks, Pick{Candidate: pool[i], Rank: len(res.Picks) + 1, Boosted: boosted})
	}

	for _, c := range r.constraints {
		cohort := person.Cohort(c.Attribute)
		cr := recommend.ConstraintResult{
			Attribute: c.Attribute,
			Cohort:    cohort,
			Quota:     c.Quota(requested),
		}
		for i := range pool {
			if !taken[i] && matches(&pool[i], c.Attribute, cohort) {
				cr.Available++
			}
		}
		for i := range pool {
			if cr.Selected == cr.Quota || len(res.Picks) == k {
				break
			}
			if taken[i] || !matches(&pool[i], c.Attribute, cohort) {
				continue
			}
			place(i, true)
			cr.Selected++
		}
		cr.Satisfied = cr.Selected >= cr.Quota
		if !cr.Satisfied {
			r.logger.Debug().
				Str("person_id", person.ID).
				Str("attribute", string(c.Attribute)).
				Str("cohort", cohort).
				Int("selected", cr.Selected).
				Int("quota", cr.Quota).
				Msg("fairness quota not met")
		}
		res.Constraints = append(res.Constraints, cr)
	}

	for i := range pool {
		if len(res.Picks) == k {
			break
		}
		if !taken[i] {
			place(i, false)
		}
	}
	return res, nil
}

func matches(c *Candidate, attr recommend.ProtectedAttribute, cohort string) bool {
	if c.Opportunity == nil {
		return false
	}
	return recommend.CohortsMatch(cohort, c.Opportunity.Cohort(attr))
}

// dedupe returns candidates sorted by score with repeated opportunity ids
// removed, keeping the first (best) occurrence.
func dedupe(cands []Candidate) []Candidate {
	sorted := slices.Clone(cands)
	SortCandidates(sorted)
	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	for _, c := range sorted {
		if _, dup := seen[c.OpportunityID]; dup {
			continue
		}
		seen[c.OpportunityID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func boundK(k, n int) int {
	if k > maxSlateSize {
		k = maxSlateSize
	}
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}
	return k
}
