// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/tomtom215/internrank/internal/recommend"
)

func TestAuditorReport(t *testing.T) {
	constraint := recommend.FairnessConstraint{Attribute: recommend.AttrLocale, Share: 0.3}
	r := newTestReranker(t, 10, constraint)
	a := NewAuditor(r.Constraints())

	// Satisfied: four rural candidates available.
	ok := r.RerankOne(context.Background(), &Job{Person: ruralPerson(), Candidates: candidates(12, 8, 9, 10, 11), K: 10})
	// Unsatisfied: only two.
	short := r.RerankOne(context.Background(), &Job{
		Person:     &recommend.Person{ID: "S9", Locale: "rural"},
		Candidates: candidates(12, 10, 11),
		K:          10,
	})
	a.Add(&ok)
	a.Add(&short)
	rep := a.Report()

	if rep.Persons != 2 || rep.Fallbacks != 0 {
		t.Errorf("Persons = %d, Fallbacks = %d, want 2, 0", rep.Persons, rep.Fallbacks)
	}
	if len(rep.Satisfaction) != 1 || rep.Satisfaction[0].Rate != 0.5 {
		t.Fatalf("Satisfaction = %+v, want one attribute at 0.5", rep.Satisfaction)
	}
	if rep.OverallSatisfaction != 0.5 {
		t.Errorf("OverallSatisfaction = %v, want 0.5", rep.OverallSatisfaction)
	}
	if len(rep.Shortfalls) != 1 || rep.Shortfalls[0].PersonID != "S9" || rep.Shortfalls[0].Selected != 2 {
		t.Errorf("Shortfalls = %+v, want S9 with 2 selected", rep.Shortfalls)
	}
	if !errors.Is(rep.Err(), recommend.ErrConstraintUnsatisfiable) {
		t.Errorf("Err() = %v, want ErrConstraintUnsatisfiable", rep.Err())
	}

	// Promoting lower-scored rural items cannot raise mean utility.
	if rep.FairMeanSuccess > rep.BaselineMeanSuccess {
		t.Errorf("fair mean %v > baseline mean %v", rep.FairMeanSuccess, rep.BaselineMeanSuccess)
	}
	if math.Abs(rep.AbsoluteDelta-(rep.FairMeanSuccess-rep.BaselineMeanSuccess)) > 1e-12 {
		t.Errorf("AbsoluteDelta = %v", rep.AbsoluteDelta)
	}
	if want := rep.AbsoluteDelta / rep.BaselineMeanSuccess * 100; math.Abs(rep.RelativeDeltaPct-want) > 1e-9 {
		t.Errorf("RelativeDeltaPct = %v, want %v", rep.RelativeDeltaPct, want)
	}

	shift := rep.Cohorts[0]
	// Baseline top-10 of 12 holds rural O08, O09 (first person) and none
	// (second); fair slates hold 3 and 2.
	if got, want := shift.Before[recommend.CohortRural], 2.0/20; math.Abs(got-want) > 1e-12 {
		t.Errorf("rural share before = %v, want %v", got, want)
	}
	if got, want := shift.After[recommend.CohortRural], 5.0/20; math.Abs(got-want) > 1e-12 {
		t.Errorf("rural share after = %v, want %v", got, want)
	}
}

func TestAuditorEmptyAndConcurrent(t *testing.T) {
	a := NewAuditor([]recommend.FairnessConstraint{{Attribute: recommend.AttrTier, Share: 0.2}})
	rep := a.Report()
	if rep.Persons != 0 || rep.RelativeDeltaPct != 0 || rep.Err() != nil {
		t.Errorf("empty report = %+v", rep)
	}

	r := newTestReranker(t, 5, recommend.FairnessConstraint{Attribute: recommend.AttrTier, Share: 0.2})
	jobs := batchJobs(16)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := r.RerankOne(context.Background(), &jobs[i])
			a.Add(&o)
		}()
	}
	wg.Wait()
	if got := a.Report().Persons; got != 16 {
		t.Errorf("Persons = %d, want 16", got)
	}
}
