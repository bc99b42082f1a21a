// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/internrank/internal/recommend"
)

func batchJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			Person:     &recommend.Person{ID: fmt.Sprintf("S%d", i), Locale: "rural"},
			Candidates: candidates(12, 10, 11),
			K:          5,
		}
	}
	return jobs
}

func TestRerankBatchPreservesOrder(t *testing.T) {
	r := newTestReranker(t, 5, recommend.FairnessConstraint{Attribute: recommend.AttrLocale, Share: 0.4})
	jobs := batchJobs(20)
	out := r.RerankBatch(context.Background(), jobs, 4)
	if len(out) != len(jobs) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(jobs))
	}
	for i, o := range out {
		if o.PersonID != jobs[i].Person.ID {
			t.Errorf("out[%d].PersonID = %s, want %s", i, o.PersonID, jobs[i].Person.ID)
		}
		if o.Fallback || o.Err != nil {
			t.Errorf("out[%d] fell back: %v", i, o.Err)
		}
		assertSlate(t, o.Result, 5)
		if len(o.Baseline.Picks) != 5 {
			t.Errorf("out[%d] baseline has %d picks, want 5", i, len(o.Baseline.Picks))
		}
		if o.Picks[0].OpportunityID != "O10" || o.Picks[1].OpportunityID != "O11" {
			t.Errorf("out[%d] top picks = %s, %s, want O10, O11", i, o.Picks[0].OpportunityID, o.Picks[1].OpportunityID)
		}
	}
}

// One person's failure or panic leaves every other person's fair slate
// intact and gives the failing person plain top-K.
func TestRerankBatchIsolatesFailures(t *testing.T) {
	r := newTestReranker(t, 5, recommend.FairnessConstraint{Attribute: recommend.AttrLocale, Share: 0.4})
	r.rerankFn = func(ctx context.Context, p *recommend.Person, c []Candidate, k int) (Result, error) {
		switch p.ID {
		case "S1":
			panic("boom")
		case "S3":
			return Result{}, errors.New("scoring failed")
		}
		return r.Rerank(ctx, p, c, k)
	}

	out := r.RerankBatch(context.Background(), batchJobs(5), 2)
	for i, o := range out {
		failing := i == 1 || i == 3
		if o.Fallback != failing {
			t.Errorf("out[%d].Fallback = %v, want %v", i, o.Fallback, failing)
		}
		if failing {
			if o.Err == nil {
				t.Errorf("out[%d].Err = nil for failing person", i)
			}
			if o.PersonID != fmt.Sprintf("S%d", i) {
				t.Errorf("out[%d].PersonID = %q", i, o.PersonID)
			}
			for j, p := range o.Picks {
				if want := fmt.Sprintf("O%02d", j); p.OpportunityID != want || p.Boosted {
					t.Errorf("out[%d] fallback pick %d = %s boosted=%v, want %s", i, j, p.OpportunityID, p.Boosted, want)
				}
			}
			continue
		}
		if o.Picks[0].OpportunityID != "O10" {
			t.Errorf("out[%d] top pick = %s, want O10", i, o.Picks[0].OpportunityID)
		}
	}
}

func TestRerankOneNilPerson(t *testing.T) {
	r := newTestReranker(t, 3)
	o := r.RerankOne(context.Background(), &Job{Candidates: candidates(4)})
	if !o.Fallback || o.Err == nil {
		t.Fatalf("Fallback = %v, Err = %v, want fallback with error", o.Fallback, o.Err)
	}
	if len(o.Picks) != 3 {
		t.Errorf("len(Picks) = %d, want 3", len(o.Picks))
	}
}
