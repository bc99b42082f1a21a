// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

// Package reranking turns scored candidates into fair slates.
//
// Re-ranking is the last pipeline stage:
//
//	calibrated candidates -> constraint passes -> fill -> slate
//	(success_prob)           (cohort quotas)      (score)
//
// # Constraint passes
//
// Each FairnessConstraint names a protected attribute and a minimum share.
// For a person, the pass looks up the person's own cohort for the
// attribute (rural/urban locale, Tier-1 versus Tier-2/3 institution,
// gender) and reserves up to ceil(share*K) slots for the best remaining
// opportunities aimed at that cohort. Constraints run in configured
// order, so earlier attributes claim slots first. Unknown cohorts never
// match. When too few matching opportunities exist the pass takes what
// it can and records the shortfall in the ConstraintResult.
//
// # Fill
//
// Unfilled slots are taken from the remaining pool by success
// probability, ties broken by opportunity id. Ranks are contiguous from 1
// in placement order, and every opportunity appears at most once.
//
// # Batches
//
// RerankBatch runs persons concurrently with a bounded worker count. A
// person whose re-ranking fails or panics gets the plain top-K slate with
// Fallback set; other persons are unaffected.
//
// # Audit
//
// Auditor compares the baseline top-K slates with the fair slates: mean
// success probability and its relative change, per-attribute quota
// satisfaction rates, cohort shares before and after, and the list of
// shortfalls.
//
// # Thread Safety
//
// FairReranker is immutable after construction and safe for concurrent
// use. Auditor serializes Add and Report with a mutex.
package reranking
