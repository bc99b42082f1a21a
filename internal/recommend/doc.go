// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

// Package recommend defines the domain model of the internship ranking pipeline.
//
// # Architecture
//
// Ranking runs in five scoring stages followed by a fairness re-ranker:
//
//   - Text vectorization: shared TF-IDF vocabulary over opportunities and persons
//   - Content similarity: cosine similarity blended with metadata affinity
//   - Collaborative filtering: implicit-feedback ALS over weighted events
//   - Hybrid blending: outer join of content and collaborative scores
//   - Calibration: class-balanced logistic regression with Platt scaling
//   - Fairness re-ranking: greedy quota passes over protected attributes
//
// Stages live in the algorithms and reranking subpackages. The pipeline
// subpackage composes them into a Service over one immutable Snapshot.
//
// # Design Principles
//
//   - Deterministic: identical snapshots and configs yield identical slates
//   - Neutral-fill: missing scores are 0.0, missing categories are "unknown",
//     degenerate normalizations emit 0.5 (see neutral.go)
//   - Validated configuration: weight sums and fairness shares are checked
//     once, at construction
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	svc, err := pipeline.New(ctx, snapshot, cfg, logger)
//	if err != nil {
//	    return err // ErrModelUnavailable is fatal
//	}
//	slate, err := svc.Rank(ctx, "STU001", 10)
package recommend
