// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

// Package storage persists fitted ALS factors so a restart on the same
// snapshot and hyperparameters can skip factorization.
//
// # Storage Format
//
// Each model is one file:
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata, including snapshot fingerprint and config hash)
//	  - CompressedData (gzip-compressed gob-encoded FactorState)
//
// Loads verify a SHA-256 checksum of the decompressed payload. Writes go to
// a temporary file that is renamed into place.
//
// # Usage
//
//	store, err := storage.NewStore("/data/models")
//	state, meta, err := store.Load(ctx, "als", 0)
//	if err == nil && meta.Matches(snap.Fingerprint(), storage.ConfigHash(cfg.ALS)) {
//	    factors, err := state.Factors(matrix)
//	    ...
//	}
//
// Old versions are removed with Prune.
package storage
