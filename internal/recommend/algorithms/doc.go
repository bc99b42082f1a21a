// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

// Package algorithms implements the scoring stages of the ranking pipeline.
//
// Each stage reads the previous stage's output and produces a new table;
// no stage mutates another stage's output in place.
//
// # Stages
//
// Content:
//   - TFIDFVectorizer: shared unigram+bigram vocabulary fit on opportunities,
//     persons projected onto it
//   - ContentScorer: cosine similarity as one dense matrix product, blended
//     70/30 with rule-based metadata affinity
//
// Collaborative:
//   - BuildInteractionMatrix: weighted sparse person x opportunity matrix
//   - ALS: implicit-feedback alternating least squares behind the Solver
//     interface (OptimizedSolver on gonum, ReferenceSolver hand-rolled)
//
// Blending and calibration:
//   - HybridBlender: outer join of content and collaborative tables
//   - FeatureBuilder, LogisticRegression, Calibrator: Platt-calibrated,
//     class-balanced logistic regression over hybrid and contextual features
//   - Evaluate: ROC-AUC, average precision and Brier score
//
// # Score Ranges
//
// Every table emitted by a stage holds values in [0, 1]. Min-max
// normalization of a column with no variance emits 0.5 for every value
// (recommend.NeutralScore) instead of dividing by zero.
//
// # Thread Safety
//
// Fitted stages are safe for concurrent use. Fitting acquires an exclusive
// lock while scoring uses a shared lock.
//
// # Determinism
//
// No stage draws from an unseeded source. ALS initialization and the
// calibrator's stratified splits use math/rand/v2 PCG seeded from config,
// so identical inputs always produce identical scores.
package algorithms
