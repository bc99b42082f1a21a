// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/internrank/internal/recommend"
)

// AttributeSatisfaction is the share of slates that met one attribute's quota.
type AttributeSatisfaction struct {
	Attribute recommend.ProtectedAttribute `json:"attribute"`
	Evaluated int                          `json:"evaluated"`
	Satisfied int                          `json:"satisfied"`
	Rate      float64                      `json:"rate"`
}

// CohortShift is the share of slate entries per opportunity cohort for
// one attribute, across the batch, before and after re-ranking.
type CohortShift struct {
	Attribute recommend.ProtectedAttribute `json:"attribute"`
	Before    map[string]float64           `json:"before"`
	After     map[string]float64           `json:"after"`
}

// Shortfall is one unmet quota.
type Shortfall struct {
	PersonID  string                       `json:"person_id"`
	Attribute recommend.ProtectedAttribute `json:"attribute"`
	Cohort    string                       `json:"cohort"`
	Selected  int                          `json:"selected"`
	Quota     int                          `json:"quota"`
}

// Err wraps recommend.ErrConstraintUnsatisfiable with the shortfall details.
func (s Shortfall) Err() error {
	return fmt.Errorf("%w: person %s %s=%s selected %d of %d",
		recommend.ErrConstraintUnsatisfiable, s.PersonID, s.Attribute, s.Cohort, s.Selected, s.Quota)
}

// Audit compares baseline top-K slates with fair slates across a batch.
type Audit struct {
	Persons   int `json:"persons"`
	Fallbacks int `json:"fallbacks"`

	BaselineMeanSuccess float64 `json:"baseline_mean_success_prob"`
	FairMeanSuccess     float64 `json:"fair_mean_success_prob"`
	AbsoluteDelta       float64 `json:"absolute_delta"`
	RelativeDeltaPct    float64 `json:"relative_delta_pct"`

	Satisfaction []AttributeSatisfaction `json:"satisfaction"`

	// OverallSatisfaction is the mean of the per-attribute rates.
	OverallSatisfaction float64 `json:"overall_satisfaction"`

	Cohorts    []CohortShift `json:"cohorts"`
	Shortfalls []Shortfall   `json:"shortfalls"`
}

// Err joins every shortfall error, or returns nil when all quotas were met.
func (a *Audit) Err() error {
	errs := make([]error, 0, len(a.Shortfalls))
	for _, s := range a.Shortfalls {
		errs = append(errs, s.Err())
	}
	return errors.Join(errs...)
}

// Auditor accumulates outcomes; it is safe for concurrent use.
type Auditor struct {
	mu    sync.Mutex
	attrs []recommend.ProtectedAttribute

	persons   int
	fallbacks int

	baseSum, fairSum float64
	baseN, fairN     int

	evaluated map[recommend.ProtectedAttribute]int
	satisfied map[recommend.ProtectedAttribute]int

	before map[recommend.ProtectedAttribute]map[string]int
	after  map[recommend.ProtectedAttribute]map[string]int

	shortfalls []Shortfall
}

// NewAuditor tracks the attributes of the given constraints.
func NewAuditor(constraints []recommend.FairnessConstraint) *Auditor {
	a := &Auditor{
		evaluated: make(map[recommend.ProtectedAttribute]int),
		satisfied: make(map[recommend.ProtectedAttribute]int),
		before:    make(map[recommend.ProtectedAttribute]map[string]int),
		after:     make(map[recommend.ProtectedAttribute]map[string]int),
	}
	for _, c := range constraints {
		a.attrs = append(a.attrs, c.Attribute)
		a.before[c.Attribute] = make(map[string]int)
		a.after[c.Attribute] = make(map[string]int)
	}
	return a
}

// Add records one outcome.
func (a *Auditor) Add(o *Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.persons++
	if o.Fallback {
		a.fallbacks++
	}
	for i := range o.Baseline.Picks {
		p := &o.Baseline.Picks[i]
		a.baseSum += p.SuccessProb
		a.baseN++
		a.countCohorts(a.before, p)
	}
	for i := range o.Picks {
		p := &o.Picks[i]
		a.fairSum += p.SuccessProb
		a.fairN++
		a.countCohorts(a.after, p)
	}
	for _, c := range o.Constraints {
		a.evaluated[c.Attribute]++
		if c.Satisfied {
			a.satisfied[c.Attribute]++
			continue
		}
		a.shortfalls = append(a.shortfalls, Shortfall{
			PersonID:  o.PersonID,
			Attribute: c.Attribute,
			Cohort:    c.Cohort,
			Selected:  c.Selected,
			Quota:     c.Quota,
		})
	}
}

func (a *Auditor) countCohorts(dst map[recommend.ProtectedAttribute]map[string]int, p *Pick) {
	for _, attr := range a.attrs {
		cohort := recommend.CohortUnknown
		if p.Opportunity != nil {
			cohort = p.Opportunity.Cohort(attr)
		}
		dst[attr][cohort]++
	}
}

// Report summarizes everything added so far.
func (a *Auditor) Report() Audit {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Audit{Persons: a.persons, Fallbacks: a.fallbacks}
	if a.baseN > 0 {
		r.BaselineMeanSuccess = a.baseSum / float64(a.baseN)
	}
	if a.fairN > 0 {
		r.FairMeanSuccess = a.fairSum / float64(a.fairN)
	}
	r.AbsoluteDelta = r.FairMeanSuccess - r.BaselineMeanSuccess
	if r.BaselineMeanSuccess > 0 {
		r.RelativeDeltaPct = r.AbsoluteDelta / r.BaselineMeanSuccess * 100
	}

	var rateSum float64
	for _, attr := range a.attrs {
		s := AttributeSatisfaction{Attribute: attr, Evaluated: a.evaluated[attr], Satisfied: a.satisfied[attr]}
		if s.Evaluated > 0 {
			s.Rate = float64(s.Satisfied) / float64(s.Evaluated)
		}
		rateSum += s.Rate
		r.Satisfaction = append(r.Satisfaction, s)
		r.Cohorts = append(r.Cohorts, CohortShift{
			Attribute: attr,
			Before:    shares(a.before[attr], a.baseN),
			After:     shares(a.after[attr], a.fairN),
		})
	}
	if len(a.attrs) > 0 {
		r.OverallSatisfaction = rateSum / float64(len(a.attrs))
	}

	r.Shortfalls = append([]Shortfall(nil), a.shortfalls...)
	sort.SliceStable(r.Shortfalls, func(i, j int) bool {
		if r.Shortfalls[i].PersonID != r.Shortfalls[j].PersonID {
			return r.Shortfalls[i].PersonID < r.Shortfalls[j].PersonID
		}
		return r.Shortfalls[i].Attribute < r.Shortfalls[j].Attribute
	})
	return r
}

func shares(counts map[string]int, n int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	if n == 0 {
		return out
	}
	for k, c := range counts {
		out[k] = float64(c) / float64(n)
	}
	return out
}
