// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/recommend"
)

func newTestReranker(t *testing.T, k int, constraints ...recommend.FairnessConstraint) *FairReranker {
	t.Helper()
	r, err := NewFairReranker(recommend.FairnessConfig{K: k, Constraints: constraints}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFairReranker() error = %v", err)
	}
	return r
}

// candidates builds n opportunities with descending scores. Every
// opportunity is urban except those whose index is in rural.
func candidates(n int, rural ...int) []Candidate {
	isRural := make(map[int]bool, len(rural))
	for _, i := range rural {
		isRural[i] = true
	}
	out := make([]Candidate, n)
	for i := range out {
		o := &recommend.Opportunity{ID: fmt.Sprintf("O%02d", i), Location: "Mumbai", TierFocus: "Tier-1"}
		if isRural[i] {
			o.Locale = "rural"
			o.TierFocus = "Tier-3"
		}
		out[i] = Candidate{OpportunityID: o.ID, SuccessProb: 0.9 - 0.01*float64(i), Opportunity: o, Ref: i}
	}
	return out
}

func assertSlate(t *testing.T, res Result, k int) {
	t.Helper()
	if len(res.Picks) > k {
		t.Fatalf("len(Picks) = %d, want <= %d", len(res.Picks), k)
	}
	seen := make(map[string]bool)
	for i, p := range res.Picks {
		if p.Rank != i+1 {
			t.Errorf("Picks[%d].Rank = %d, want %d", i, p.Rank, i+1)
		}
		if seen[p.OpportunityID] {
			t.Errorf("duplicate opportunity %s", p.OpportunityID)
		}
		seen[p.OpportunityID] = true
	}
}

func ruralPerson() *recommend.Person {
	return &recommend.Person{ID: "S1", Locale: "Rural", Tier: "Tier-3", Gender: "F"}
}

// A rural person with K=10 and a 0.3 locale share needs 3 rural slots;
// only 2 rural opportunities exist, so both are placed, the constraint is
// recorded unsatisfied and the slate is still filled to 10.
func TestRerankInsufficientCohortCandidates(t *testing.T) {
	r := newTestReranker(t, 10, recommend.FairnessConstraint{Attribute: recommend.AttrLocale, Share: 0.3})
	cands := candidates(10, 7, 9)

	res, err := r.Rerank(context.Background(), ruralPerson(), cands, 10)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	assertSlate(t, res, 10)
	if len(res.Picks) != 10 {
		t.Fatalf("len(Picks) = %d, want 10", len(res.Picks))
	}
	if len(res.Constraints) != 1 {
		t.Fatalf("len(Constraints) = %d, want 1", len(res.Constraints))
	}
	c := res.Constraints[0]
	if c.Satisfied || c.Selected != 2 || c.Quota != 3 || c.Available != 2 || c.Cohort != recommend.CohortRural {
		t.Errorf("constraint = %+v, want rural 2/3 unsatisfied with 2 available", c)
	}
	if len(res.Unsatisfied()) != 1 {
		t.Errorf("Unsatisfied() = %v, want one entry", res.Unsatisfied())
	}
	// Constraint picks come first and are flagged.
	if res.Picks[0].OpportunityID != "O07" || res.Picks[1].OpportunityID != "O09" {
		t.Errorf("first picks = %s, %s, want O07, O09", res.Picks[0].OpportunityID, res.Picks[1].OpportunityID)
	}
	for i, p := range res.Picks {
		if want := i < 2; p.Boosted != want {
			t.Errorf("Picks[%d].Boosted = %v, want %v", i, p.Boosted, want)
		}
	}
}

func TestRerankMeetsQuotaWhenPossible(t *testing.T) {
	tests := []struct {
		name        string
		constraints []recommend.FairnessConstraint
		rural       []int
		k           int
		wantMatches map[recommend.ProtectedAttribute]int
	}{
		{
			name:        "locale only",
			constraints: []recommend.FairnessConstraint{{Attribute: recommend.AttrLocale, Share: 0.3}},
			rural:       []int{12, 15, 18, 19},
			k:           10,
			wantMatches: map[recommend.ProtectedAttribute]int{recommend.AttrLocale: 3},
		},
		{
			name: "locale then tier",
			constraints: []recommend.FairnessConstraint{
				{Attribute: recommend.AttrLocale, Share: 0.2},
				{Attribute: recommend.AttrTier, Share: 0.5},
			},
			rural:       []int{5, 11, 13, 14, 16, 17, 18},
			k:           10,
			wantMatches: map[recommend.ProtectedAttribute]int{recommend.AttrLocale: 2, recommend.AttrTier: 5},
		},
		{
			name:        "small slate rounds quota up",
			constraints: []recommend.FairnessConstraint{{Attribute: recommend.AttrLocale, Share: 0.3}},
			rural:       []int{8, 9},
			k:           3,
			wantMatches: map[recommend.ProtectedAttribute]int{recommend.AttrLocale: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReranker(t, tt.k, tt.constraints...)
			person := ruralPerson()
			res, err := r.Rerank(context.Background(), person, candidates(20, tt.rural...), tt.k)
			if err != nil {
				t.Fatal(err)
			}
			assertSlate(t, res, tt.k)
			if len(res.Picks) != tt.k {
				t.Fatalf("len(Picks) = %d, want %d", len(res.Picks), tt.k)
			}
			for attr, want := range tt.wantMatches {
				var got int
				for _, p := range res.Picks {
					if recommend.CohortsMatch(person.Cohort(attr), p.Opportunity.Cohort(attr)) {
						got++
					}
				}
				if got < want {
					t.Errorf("%s matches = %d, want >= %d", attr, got, want)
				}
			}
			for _, c := range res.Constraints {
				if !c.Satisfied {
					t.Errorf("constraint %+v unsatisfied", c)
				}
			}
		})
	}
}

func TestRerankWithoutConstraintsIsTopK(t *testing.T) {
	r := newTestReranker(t, 5)
	cands := candidates(8, 6)
	// Shuffle input order; output must not depend on it.
	cands[0], cands[7] = cands[7], cands[0]
	res, err := r.Rerank(context.Background(), ruralPerson(), cands, 0)
	if err != nil {
		t.Fatal(err)
	}
	base := TopK("S1", cands, 5)
	if len(res.Picks) != 5 || len(base.Picks) != 5 {
		t.Fatalf("lengths = %d/%d, want 5", len(res.Picks), len(base.Picks))
	}
	for i := range res.Picks {
		if want := fmt.Sprintf("O%02d", i); res.Picks[i].OpportunityID != want || base.Picks[i].OpportunityID != want {
			t.Errorf("rank %d = %s (baseline %s), want %s", i+1, res.Picks[i].OpportunityID, base.Picks[i].OpportunityID, want)
		}
	}
}

func TestRerankTiesAndDuplicates(t *testing.T) {
	r := newTestReranker(t, 3)
	o := &recommend.Opportunity{ID: "B"}
	cands := []Candidate{
		{OpportunityID: "C", SuccessProb: 0.5},
		{OpportunityID: "B", SuccessProb: 0.5, Opportunity: o},
		{OpportunityID: "A", SuccessProb: 0.5},
		{OpportunityID: "B", SuccessProb: 0.4},
	}
	res, err := r.Rerank(context.Background(), ruralPerson(), cands, 3)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{res.Picks[0].OpportunityID, res.Picks[1].OpportunityID, res.Picks[2].OpportunityID}
	if fmt.Sprint(got) != "[A B C]" {
		t.Errorf("order = %v, want [A B C]", got)
	}
	if res.Picks[1].Opportunity != o {
		t.Error("duplicate kept the lower-scored entry")
	}
}

func TestRerankUnknownCohortNeverMatches(t *testing.T) {
	r := newTestReranker(t, 4, recommend.FairnessConstraint{Attribute: recommend.AttrGender, Share: 0.5})
	cands := candidates(6)
	for i := range cands {
		cands[i].Opportunity.GenderFocus = ""
	}
	person := &recommend.Person{ID: "S2"}
	res, err := r.Rerank(context.Background(), person, cands, 4)
	if err != nil {
		t.Fatal(err)
	}
	c := res.Constraints[0]
	if c.Cohort != recommend.CohortUnknown || c.Selected != 0 || c.Satisfied {
		t.Errorf("constraint = %+v, want unknown cohort unsatisfied", c)
	}
	if len(res.Picks) != 4 {
		t.Errorf("len(Picks) = %d, want 4", len(res.Picks))
	}
}

func TestRerankSmallPool(t *testing.T) {
	r := newTestReranker(t, 10, recommend.FairnessConstraint{Attribute: recommend.AttrLocale, Share: 0.3})
	res, err := r.Rerank(context.Background(), ruralPerson(), candidates(2, 1), 10)
	if err != nil {
		t.Fatal(err)
	}
	assertSlate(t, res, 10)
	if len(res.Picks) != 2 {
		t.Errorf("len(Picks) = %d, want 2", len(res.Picks))
	}
	if c := res.Constraints[0]; c.Quota != 3 || c.Satisfied {
		t.Errorf("constraint = %+v, want quota 3 unsatisfied", c)
	}

	empty, err := r.Rerank(context.Background(), ruralPerson(), nil, 10)
	if err != nil || len(empty.Picks) != 0 {
		t.Errorf("Rerank(nil) = %d picks, %v", len(empty.Picks), err)
	}
}

func TestRerankErrors(t *testing.T) {
	r := newTestReranker(t, 3)
	if _, err := r.Rerank(context.Background(), nil, candidates(3), 3); err == nil {
		t.Error("Rerank(nil person) returned nil error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Rerank(ctx, ruralPerson(), candidates(3), 3); err == nil {
		t.Error("Rerank(cancelled) returned nil error")
	}
}

func TestNewFairRerankerValidates(t *testing.T) {
	_, err := NewFairReranker(recommend.FairnessConfig{
		K:           10,
		Constraints: []recommend.FairnessConstraint{{Attribute: "religion", Share: 0.2}},
	}, zerolog.Nop())
	if err == nil {
		t.Error("unknown attribute accepted")
	}
}
