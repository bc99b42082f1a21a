// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package recommend

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// WeightTolerance bounds |w_content + w_cf - 1|.
const WeightTolerance = 1e-9

// Config contains all configuration for the ranking pipeline.
// Invariants are checked once by Validate at construction, never at use.
type Config struct {
	// Vectorizer controls the shared TF-IDF vocabulary.
	Vectorizer VectorizerConfig `json:"vectorizer"`

	// Content controls the content similarity scorer.
	Content ContentConfig `json:"content"`

	// Weights blends content and collaborative scores. Must sum to 1.
	Weights BlendWeights `json:"weights"`

	// ALS contains parameters for the collaborative filtering engine.
	ALS ALSConfig `json:"als"`

	// Calibration contains parameters for the success probability calibrator.
	Calibration CalibrationConfig `json:"calibration"`

	// Fairness contains the slate size and ordered constraints.
	Fairness FairnessConfig `json:"fairness"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains result caching parameters.
	Cache CacheConfig `json:"cache"`
}

// VectorizerConfig controls TF-IDF vocabulary construction.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size.
	// Default: 1000.
	MaxFeatures int `json:"max_features"`

	// MaxDocFreq drops terms present in more than this share of documents.
	// Default: 0.95.
	MaxDocFreq float64 `json:"max_doc_freq"`
}

// ContentConfig controls the content similarity scorer.
type ContentConfig struct {
	// CosineWeight is the share of the normalized text similarity.
	// Default: 0.7.
	CosineWeight float64 `json:"cosine_weight"`

	// MetadataWeight is the share of the normalized metadata affinity.
	// Default: 0.3.
	MetadataWeight float64 `json:"metadata_weight"`

	// Metadata weights the five metadata features.
	Metadata MetadataWeights `json:"metadata"`
}

// MetadataWeights weights the per-pair metadata features.
type MetadataWeights struct {
	Degree   float64 `json:"degree"`
	Level    float64 `json:"level"`
	Location float64 `json:"location"`
	Academic float64 `json:"academic"`
	Equity   float64 `json:"equity"`
}

// Sum returns the total weight.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w MetadataWeights) Sum() float64 {
	return w.Degree + w.Level + w.Location + w.Academic + w.Equity
}

// BlendWeights are the hybrid blend weights.
type BlendWeights struct {
	// Content is the weight for normalized content scores.
	// Default: 0.6.
	Content float64 `json:"content"`

	// CF is the weight for normalized collaborative scores.
	// Default: 0.4.
	CF float64 `json:"cf"`
}

// Validate checks both weights are in [0,1] and sum to exactly 1.
func (w BlendWeights) Validate() error {
	if w.Content < 0 || w.Content > 1 || w.CF < 0 || w.CF > 1 {
		return fmt.Errorf("%w: blend weights must be in [0, 1], got content=%g cf=%g", ErrInvalidConfig, w.Content, w.CF)
	}
	if math.Abs(w.Content+w.CF-1) > WeightTolerance {
		return fmt.Errorf("%w: blend weights must sum to 1.0, got %g", ErrInvalidConfig, w.Content+w.CF)
	}
	return nil
}

// ALSSolver selects the factorization backend.
type ALSSolver string

const (
	// SolverOptimized uses dense BLAS-backed Cholesky solves in parallel.
	SolverOptimized ALSSolver = "optimized"
	// SolverReference uses plain sequential closed-form solves.
	SolverReference ALSSolver = "reference"
)

// ALSConfig contains parameters for alternating least squares.
type ALSConfig struct {
	// Factors is the latent dimension.
	// Default: 50.
	Factors int `json:"factors"`

	// Regularization is the L2 penalty.
	// Default: 0.01.
	Regularization float64 `json:"regularization"`

	// Iterations is the fixed number of alternating sweeps.
	// Default: 50.
	Iterations int `json:"iterations"`

	// Alpha scales confidence: c = 1 + alpha * r.
	// Default: 1.0.
	Alpha float64 `json:"alpha"`

	// Seed fixes factor initialization.
	// Default: 42.
	Seed int64 `json:"seed"`

	// Solver selects the backend.
	// Default: optimized.
	Solver ALSSolver `json:"solver"`

	// Workers bounds parallel row solves for the optimized backend.
	// Default: 4.
	Workers int `json:"workers"`
}

// CalibrationConfig contains parameters for the success probability calibrator.
type CalibrationConfig struct {
	// Folds is the number of stratified folds for Platt scaling.
	// Default: 3.
	Folds int `json:"folds"`

	// TestFraction is the held-out share for evaluation.
	// Default: 0.2.
	TestFraction float64 `json:"test_fraction"`

	// Seed fixes the stratified split and fold assignment.
	// Default: 42.
	Seed int64 `json:"seed"`

	// C is the inverse L2 regularization strength.
	// Default: 1.0.
	C float64 `json:"c"`

	// MaxIterations bounds L-BFGS iterations.
	// Default: 1000.
	MaxIterations int `json:"max_iterations"`
}

// FairnessConstraint is a minimum representation share for one attribute.
type FairnessConstraint struct {
	Attribute ProtectedAttribute `json:"attribute"`

	// Share is the minimum share of the slate, in (0,1].
	Share float64 `json:"share"`
}

// Quota returns ceil(Share * k).
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (c FairnessConstraint) Quota(k int) int {
	if k <= 0 {
		return 0
	}
	// Absorb float error so an exact product never rounds up.
	q := int(math.Ceil(c.Share*float64(k) - 1e-9))
	if q > k {
		q = k
	}
	return q
}

// FairnessConfig holds the slate size and ordered constraints.
type FairnessConfig struct {
	// K is the slate size.
	// Default: 10.
	K int `json:"k"`

	// Constraints are applied in order; earlier entries have priority.
	// Default: locale 0.3, tier 0.3, gender 0.2.
	Constraints []FairnessConstraint `json:"constraints"`
}

// Validate checks K, share ranges and attribute names.
func (f *FairnessConfig) Validate() error {
	if f.K < 1 {
		return fmt.Errorf("%w: fairness.k must be positive, got %d", ErrInvalidConfig, f.K)
	}
	seen := make(map[ProtectedAttribute]struct{}, len(f.Constraints))
	for _, c := range f.Constraints {
		if !c.Attribute.Valid() {
			return fmt.Errorf("%w: unknown protected attribute %q", ErrInvalidConfig, c.Attribute)
		}
		if _, dup := seen[c.Attribute]; dup {
			return fmt.Errorf("%w: duplicate constraint for %q", ErrInvalidConfig, c.Attribute)
		}
		seen[c.Attribute] = struct{}{}
		if !(c.Share > 0 && c.Share <= 1) {
			return fmt.Errorf("%w: share for %q must be in (0, 1], got %g", ErrInvalidConfig, c.Attribute, c.Share)
		}
	}
	return nil
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultTopN is used when a request does not name a slate size.
	// Default: 10.
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN caps requested slate sizes.
	// Default: 100.
	MaxTopN int `json:"max_top_n"`

	// RankWorkers bounds concurrent per-person ranking in batch mode.
	// Default: 8.
	RankWorkers int `json:"rank_workers"`
}

// CacheConfig contains result caching parameters.
type CacheConfig struct {
	// Enabled controls whether slate caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 10m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached slates.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Vectorizer: VectorizerConfig{
			MaxFeatures: 1000,
			MaxDocFreq:  0.95,
		},
		Content: ContentConfig{
			CosineWeight:   0.7,
			MetadataWeight: 0.3,
			Metadata: MetadataWeights{
				Degree:   0.30,
				Level:    0.25,
				Location: 0.25,
				Academic: 0.15,
				Equity:   0.05,
			},
		},
		Weights: BlendWeights{
			Content: 0.6,
			CF:      0.4,
		},
		ALS: ALSConfig{
			Factors:        50,
			Regularization: 0.01,
			Iterations:     50,
			Alpha:          1.0,
			Seed:           42,
			Solver:         SolverOptimized,
			Workers:        4,
		},
		Calibration: CalibrationConfig{
			Folds:         3,
			TestFraction:  0.2,
			Seed:          42,
			C:             1.0,
			MaxIterations: 1000,
		},
		Fairness: FairnessConfig{
			K: 10,
			Constraints: []FairnessConstraint{
				{Attribute: AttrLocale, Share: 0.3},
				{Attribute: AttrTier, Share: 0.3},
				{Attribute: AttrGender, Share: 0.2},
			},
		},
		Limits: LimitsConfig{
			DefaultTopN: 10,
			MaxTopN:     100,
			RankWorkers: 8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Vectorizer.MaxFeatures < 1 {
		return fmt.Errorf("%w: vectorizer.max_features must be positive, got %d", ErrInvalidConfig, c.Vectorizer.MaxFeatures)
	}
	if c.Vectorizer.MaxDocFreq <= 0 || c.Vectorizer.MaxDocFreq > 1 {
		return fmt.Errorf("%w: vectorizer.max_doc_freq must be in (0, 1], got %g", ErrInvalidConfig, c.Vectorizer.MaxDocFreq)
	}

	if c.Content.CosineWeight < 0 || c.Content.MetadataWeight < 0 {
		return fmt.Errorf("%w: content weights must be non-negative", ErrInvalidConfig)
	}
	if math.Abs(c.Content.CosineWeight+c.Content.MetadataWeight-1) > WeightTolerance {
		return fmt.Errorf("%w: content.cosine_weight + content.metadata_weight must be 1.0, got %g",
			ErrInvalidConfig, c.Content.CosineWeight+c.Content.MetadataWeight)
	}
	if math.Abs(c.Content.Metadata.Sum()-1) > 1e-6 {
		return fmt.Errorf("%w: content.metadata weights must sum to 1.0, got %g", ErrInvalidConfig, c.Content.Metadata.Sum())
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	if c.ALS.Factors < 1 {
		return fmt.Errorf("%w: als.factors must be positive, got %d", ErrInvalidConfig, c.ALS.Factors)
	}
	if c.ALS.Regularization < 0 {
		return fmt.Errorf("%w: als.regularization must be non-negative, got %g", ErrInvalidConfig, c.ALS.Regularization)
	}
	if c.ALS.Alpha < 0 {
		return fmt.Errorf("%w: als.alpha must be non-negative, got %g", ErrInvalidConfig, c.ALS.Alpha)
	}
	if c.ALS.Iterations < 1 {
		return fmt.Errorf("%w: als.iterations must be positive, got %d", ErrInvalidConfig, c.ALS.Iterations)
	}
	if c.ALS.Solver != SolverOptimized && c.ALS.Solver != SolverReference {
		return fmt.Errorf("%w: als.solver must be %q or %q, got %q", ErrInvalidConfig, SolverOptimized, SolverReference, c.ALS.Solver)
	}

	if c.Calibration.Folds < 2 {
		return fmt.Errorf("%w: calibration.folds must be at least 2, got %d", ErrInvalidConfig, c.Calibration.Folds)
	}
	if c.Calibration.TestFraction <= 0 || c.Calibration.TestFraction >= 1 {
		return fmt.Errorf("%w: calibration.test_fraction must be in (0, 1), got %g", ErrInvalidConfig, c.Calibration.TestFraction)
	}
	if c.Calibration.C <= 0 {
		return fmt.Errorf("%w: calibration.c must be positive, got %g", ErrInvalidConfig, c.Calibration.C)
	}

	if err := c.Fairness.Validate(); err != nil {
		return err
	}

	if c.Limits.DefaultTopN < 1 {
		return fmt.Errorf("%w: limits.default_top_n must be positive, got %d", ErrInvalidConfig, c.Limits.DefaultTopN)
	}
	if c.Limits.MaxTopN < c.Limits.DefaultTopN {
		return fmt.Errorf("%w: limits.max_top_n must be >= limits.default_top_n, got %d < %d",
			ErrInvalidConfig, c.Limits.MaxTopN, c.Limits.DefaultTopN)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Fairness.Constraints = slices.Clone(c.Fairness.Constraints)
	return &clone
}
