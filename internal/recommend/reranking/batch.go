// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package reranking

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/internrank/internal/recommend"
)

// Job is one person's candidate set in a batch.
type Job struct {
	Person     *recommend.Person
	Candidates []Candidate
	K          int
}

// Outcome is the batch result for one job.
type Outcome struct {
	Result

	// Baseline is plain top-K by score, kept for auditing.
	Baseline Result

	// Fallback is true when Result is the baseline because fair
	// re-ranking failed for this person.
	Fallback bool

	// Err is the failure that caused the fallback, if any.
	Err error
}

// RerankBatch re-ranks every job independently with at most workers in
// flight. A failure or panic for one person yields that person's top-K
// baseline and never affects the others. Outcomes are in job order.
func (r *FairReranker) RerankBatch(ctx context.Context, jobs []Job, workers int) []Outcome {
	out := make([]Outcome, len(jobs))
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range jobs {
		g.Go(func() error {
			out[i] = r.RerankOne(ctx, &jobs[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// RerankOne re-ranks a single job with panic isolation and top-K fallback.
func (r *FairReranker) RerankOne(ctx context.Context, job *Job) Outcome {
	k := job.K
	if k <= 0 {
		k = r.k
	}
	var personID string
	if job.Person != nil {
		personID = job.Person.ID
	}

	o := Outcome{Baseline: TopK(personID, job.Candidates, k)}
	res, err := r.safeRerank(ctx, job.Person, job.Candidates, k)
	if err != nil {
		r.logger.Warn().Err(err).Str("person_id", personID).Msg("fair re-ranking failed, using top-K")
		o.Result = o.Baseline
		o.Fallback = true
		o.Err = err
		return o
	}
	o.Result = res
	return o
}

func (r *FairReranker) safeRerank(ctx context.Context, person *recommend.Person, cands []Candidate, k int) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("stack", string(debug.Stack())).Msg("panic in fair re-ranking")
			err = fmt.Errorf("rerank: panic: %v", p)
		}
	}()
	if r.rerankFn != nil {
		return r.rerankFn(ctx, person, cands, k)
	}
	return r.Rerank(ctx, person, cands, k)
}
