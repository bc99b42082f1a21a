// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package pipeline wires the scoring stages into a servable recommender.

New runs, in order: content scoring (TF-IDF cosine plus metadata),
interaction matrix construction, ALS factorization, hybrid blending,
success calibration and per-pair prediction. The resulting Service is
immutable and answers Rank, RankBatch and RankAll by handing each person's
scored candidates to the fair re-ranker.

Optional collaborators:

	WithCache       two-tier slate cache keyed by person, slate size,
	                snapshot fingerprint and configuration hash
	WithModelStore  persists ALS factors and reuses them when the snapshot
	                and ALS settings are unchanged

Holder publishes the current Service behind an atomic pointer so a refresh
can build a replacement while requests keep using the old one.
*/
package pipeline
