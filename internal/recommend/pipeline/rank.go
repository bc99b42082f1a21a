// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/reranking"
)

// BatchResult holds slates for several persons plus the fairness audit of
// the batch.
type BatchResult struct {
	Slates map[string]recommend.Slate `json:"slates"`

	// Unknown lists requested ids absent from the snapshot.
	Unknown []string `json:"unknown,omitempty"`

	Audit reranking.Audit `json:"audit"`
}

// clampTopN applies the default and maximum slate sizes.
func (s *Service) clampTopN(topN int) int {
	if topN <= 0 {
		topN = s.cfg.Limits.DefaultTopN
	}
	if s.cfg.Limits.MaxTopN > 0 && topN > s.cfg.Limits.MaxTopN {
		topN = s.cfg.Limits.MaxTopN
	}
	return topN
}

// SlateSize returns the slate size Rank uses for a requested topN.
func (s *Service) SlateSize(topN int) int {
	return s.clampTopN(topN)
}

// cacheKey hashes the person, slate size, snapshot and configuration.
func (s *Service) cacheKey(personID string, topN int) uint64 {
	var buf [24]byte
	d := xxhash.New()
	_, _ = d.WriteString(personID)
	binary.BigEndian.PutUint64(buf[0:8], uint64(topN))
	binary.BigEndian.PutUint64(buf[8:16], s.fingerprint)
	binary.BigEndian.PutUint64(buf[16:24], s.configHash)
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

// Rank returns the fairness-aware slate for one person. topN <= 0 uses the
// configured default. An unknown person fails with
// recommend.ErrUnknownPerson. Re-ranking failures degrade to plain top-K
// with Fallback set; they are not returned as errors.
func (s *Service) Rank(ctx context.Context, personID string, topN int) (recommend.Slate, error) {
	start := time.Now()
	s.requests.Add(1)
	topN = s.clampTopN(topN)

	p, ok := s.personIdx[personID]
	if !ok {
		s.failures.Add(1)
		metrics.RecordRank("single", "error", time.Since(start))
		return recommend.Slate{}, fmt.Errorf("%w: %s", recommend.ErrUnknownPerson, personID)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordRank("single", "timeout", time.Since(start))
		return recommend.Slate{}, err
	}

	var key uint64
	if s.cache != nil {
		key = s.cacheKey(personID, topN)
		if slate, hit := s.cache.Get(key); hit {
			s.cacheHits.Add(1)
			metrics.RecordRank("single", "cached", time.Since(start))
			return slate, nil
		}
	}

	out := s.reranker.RerankOne(ctx, s.job(p, topN))
	slate := s.slate(p, topN, &out)
	if err := ctx.Err(); err != nil {
		metrics.RecordRank("single", "timeout", time.Since(start))
		return recommend.Slate{}, err
	}

	result := "fair"
	if slate.Fallback {
		result = "fallback"
		s.fallbacks.Add(1)
	}
	metrics.RecordRank("single", result, time.Since(start))
	if s.cache != nil && !slate.Fallback {
		s.cache.Set(key, &slate)
	}
	return slate, nil
}

// RankBatch ranks the named persons in parallel and audits the batch.
// Unknown ids are reported in BatchResult.Unknown rather than failing
// the batch.
func (s *Service) RankBatch(ctx context.Context, personIDs []string, topN int) (*BatchResult, error) {
	start := time.Now()
	topN = s.clampTopN(topN)

	res := &BatchResult{Slates: make(map[string]recommend.Slate, len(personIDs))}
	rows := make([]int, 0, len(personIDs))
	seen := make(map[string]struct{}, len(personIDs))
	for _, id := range personIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := s.personIdx[id]
		if !ok {
			res.Unknown = append(res.Unknown, id)
			continue
		}
		rows = append(rows, p)
	}

	jobs := make([]reranking.Job, len(rows))
	for i, p := range rows {
		jobs[i] = *s.job(p, topN)
	}
	outcomes := s.reranker.RerankBatch(ctx, jobs, s.cfg.Limits.RankWorkers)
	if err := ctx.Err(); err != nil {
		metrics.RecordRank("batch", "timeout", time.Since(start))
		return nil, err
	}

	auditor := reranking.NewAuditor(s.reranker.Constraints())
	for i := range outcomes {
		auditor.Add(&outcomes[i])
		slate := s.slate(rows[i], topN, &outcomes[i])
		if slate.Fallback {
			s.fallbacks.Add(1)
		}
		res.Slates[slate.PersonID] = slate
	}
	res.Audit = auditor.Report()
	s.lastAudit.Store(&res.Audit)

	s.logger.Info().
		Int("persons", len(rows)).
		Int("unknown", len(res.Unknown)).
		Int("fallbacks", res.Audit.Fallbacks).
		Float64("relative_delta_pct", res.Audit.RelativeDeltaPct).
		Float64("overall_satisfaction", res.Audit.OverallSatisfaction).
		Msg("batch ranked")
	metrics.RecordRank("batch", "fair", time.Since(start))
	return res, nil
}

// RankAll ranks every person in the snapshot.
func (s *Service) RankAll(ctx context.Context, topN int) (*BatchResult, error) {
	return s.RankBatch(ctx, s.PersonIDs(), topN)
}

// job builds the re-ranking input for person row p.
func (s *Service) job(p, topN int) *reranking.Job {
	idxs := s.byPerson[p]
	cands := make([]reranking.Candidate, len(idxs))
	for j, i := range idxs {
		cands[j] = reranking.Candidate{
			OpportunityID: s.pairs[i].OpportunityID,
			SuccessProb:   s.pairs[i].SuccessProb,
			Opportunity:   &s.snap.Opportunities[s.oppRow[i]],
			Ref:           i,
		}
	}
	return &reranking.Job{Person: &s.snap.Persons[p], Candidates: cands, K: topN}
}

// slate turns a re-ranking outcome into a validated slate. A slate that
// fails validation is replaced by an explicit empty fallback.
func (s *Service) slate(p, topN int, out *reranking.Outcome) recommend.Slate {
	person := &s.snap.Persons[p]
	slate := recommend.Slate{
		PersonID:    person.ID,
		K:           topN,
		Entries:     make([]recommend.SlateEntry, 0, len(out.Picks)),
		Constraints: out.Constraints,
		Fallback:    out.Fallback,
	}
	for _, pick := range out.Picks {
		ps := &s.pairs[pick.Ref]
		opp := &s.snap.Opportunities[s.oppRow[pick.Ref]]
		slate.Entries = append(slate.Entries, recommend.SlateEntry{
			OpportunityID:   ps.OpportunityID,
			Rank:            pick.Rank,
			SuccessProb:     ps.SuccessProb,
			HybridScore:     ps.HybridScore,
			ContentScore:    ps.ContentScore,
			CFScore:         ps.CFScore,
			MissingSkills:   recommend.MissingSkills(opp.RequiredSkills, person.Skills),
			FairnessBoosted: pick.Boosted,
			Breakdown: recommend.Breakdown{
				BaseModelProb:    ps.SuccessProb,
				ContentSignal:    ps.ContentScore,
				CFSignal:         ps.CFScore,
				FinalSuccessProb: ps.SuccessProb,
			},
		})
	}
	for _, c := range out.Unsatisfied() {
		metrics.RecordShortfall(string(c.Attribute))
	}
	if err := slate.Validate(); err != nil {
		s.failures.Add(1)
		s.logger.Error().Err(err).Str("person_id", person.ID).Msg("slate failed validation, returning empty result")
		return recommend.EmptySlate(person.ID, topN)
	}
	return slate
}
