// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package config

import (
	"time"

	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/recommend"
)

// Config holds every process setting. It is loaded once by Load and is
// read-only afterwards.
//
// Loading order:
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Mapped environment variables
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	Fairness  FairnessConfig  `koanf:"fairness"`
	Cache     CacheConfig     `koanf:"cache"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener and per-request limits.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RequestTimeout is the hard deadline for one ranking request. On
	// expiry the caller receives an empty fallback slate.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// BreakerFailures consecutive ranking failures open the circuit breaker
	// for BreakerOpenTimeout.
	BreakerFailures    uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout" validate:"gt=0"`

	Environment string `koanf:"environment" validate:"oneof=development production test"`
}

// DataConfig locates the input tables.
type DataConfig struct {
	Dir               string          `koanf:"dir" validate:"required"`
	StudentsFile      string          `koanf:"students_file" validate:"required"`
	InternshipsFile   string          `koanf:"internships_file" validate:"required"`
	InteractionsFile  string          `koanf:"interactions_file" validate:"required"`
	OutcomesFile      string          `koanf:"outcomes_file" validate:"required"`
	SyntheticFallback bool            `koanf:"synthetic_fallback"`
	Synthetic         SyntheticConfig `koanf:"synthetic"`
}

// SyntheticConfig sizes the generated sample used when real data is
// unavailable.
type SyntheticConfig struct {
	Persons         int   `koanf:"persons" validate:"min=10"`
	Opportunities   int   `koanf:"opportunities" validate:"min=5"`
	EventsPerPerson int   `koanf:"events_per_person" validate:"min=0"`
	LabelsPerPerson int   `koanf:"labels_per_person" validate:"min=1"`
	Seed            int64 `koanf:"seed"`
}

// RecommendConfig holds the scoring stage settings.
type RecommendConfig struct {
	MaxFeatures int     `koanf:"max_features" validate:"min=1"`
	MaxDocFreq  float64 `koanf:"max_doc_freq" validate:"gt=0,lte=1"`

	Content     ContentConfig     `koanf:"content"`
	Weights     WeightsConfig     `koanf:"weights"`
	ALS         ALSConfig         `koanf:"als"`
	Calibration CalibrationConfig `koanf:"calibration"`

	DefaultTopN int `koanf:"default_top_n" validate:"min=1"`
	MaxTopN     int `koanf:"max_top_n" validate:"min=1"`
	RankWorkers int `koanf:"rank_workers" validate:"min=1"`

	// ModelDir persists ALS factors between restarts; empty disables it.
	ModelDir string `koanf:"model_dir"`
}

// ContentConfig blends cosine and metadata similarity.
type ContentConfig struct {
	CosineWeight   float64        `koanf:"cosine_weight" validate:"gte=0,lte=1"`
	MetadataWeight float64        `koanf:"metadata_weight" validate:"gte=0,lte=1"`
	Metadata       MetadataConfig `koanf:"metadata"`
}

// MetadataConfig weights the metadata components.
type MetadataConfig struct {
	Degree   float64 `koanf:"degree" validate:"gte=0"`
	Level    float64 `koanf:"level" validate:"gte=0"`
	Location float64 `koanf:"location" validate:"gte=0"`
	Academic float64 `koanf:"academic" validate:"gte=0"`
	Equity   float64 `koanf:"equity" validate:"gte=0"`
}

// WeightsConfig blends content and collaborative scores; the two must sum
// to 1.
type WeightsConfig struct {
	Content float64 `koanf:"content" validate:"gte=0,lte=1"`
	CF      float64 `koanf:"cf" validate:"gte=0,lte=1"`
}

// ALSConfig configures the collaborative filtering engine.
type ALSConfig struct {
	Factors        int     `koanf:"factors" validate:"min=1"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	Iterations     int     `koanf:"iterations" validate:"min=1"`
	Alpha          float64 `koanf:"alpha" validate:"gte=0"`
	Seed           int64   `koanf:"seed"`
	Solver         string  `koanf:"solver" validate:"oneof=optimized reference"`
	Workers        int     `koanf:"workers" validate:"min=0"`
}

// CalibrationConfig configures the success calibrator.
type CalibrationConfig struct {
	Folds         int     `koanf:"folds" validate:"min=2"`
	TestFraction  float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	Seed          int64   `koanf:"seed"`
	C             float64 `koanf:"c" validate:"gt=0"`
	MaxIterations int     `koanf:"max_iterations" validate:"min=1"`
}

// FairnessConfig lists the quota constraints in pass order.
type FairnessConfig struct {
	K           int                `koanf:"k" validate:"min=1"`
	Constraints []ConstraintConfig `koanf:"constraints" validate:"dive"`
}

// ConstraintConfig is one fairness quota.
type ConstraintConfig struct {
	Attribute string  `koanf:"attribute" validate:"attribute"`
	Share     float64 `koanf:"share" validate:"gt=0,lte=1"`
}

// CacheConfig configures the slate cache tiers.
type CacheConfig struct {
	Enabled    bool             `koanf:"enabled"`
	TTL        time.Duration    `koanf:"ttl" validate:"gt=0"`
	MaxEntries int              `koanf:"max_entries" validate:"min=1"`
	Persistent PersistentConfig `koanf:"persistent"`
}

// PersistentConfig enables the Badger warm tier.
type PersistentConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir" validate:"required_if=Enabled true"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

// RefreshConfig controls snapshot rebuilds.
type RefreshConfig struct {
	// Interval between periodic rebuilds; 0 disables them.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`

	// Timeout bounds one rebuild.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// ManualPerMinute and ManualBurst size the token bucket guarding the
	// admin refresh endpoint.
	ManualPerMinute float64 `koanf:"manual_per_minute" validate:"gt=0"`
	ManualBurst     int     `koanf:"manual_burst" validate:"min=1"`
}

// SecurityConfig configures CORS and per-IP rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Pipeline converts the scoring settings into a recommend.Config.
func (c *Config) Pipeline() *recommend.Config {
	r := &c.Recommend
	constraints := make([]recommend.FairnessConstraint, len(c.Fairness.Constraints))
	for i, fc := range c.Fairness.Constraints {
		constraints[i] = recommend.FairnessConstraint{
			Attribute: recommend.ProtectedAttribute(fc.Attribute),
			Share:     fc.Share,
		}
	}
	return &recommend.Config{
		Vectorizer: recommend.VectorizerConfig{
			MaxFeatures: r.MaxFeatures,
			MaxDocFreq:  r.MaxDocFreq,
		},
		Content: recommend.ContentConfig{
			CosineWeight:   r.Content.CosineWeight,
			MetadataWeight: r.Content.MetadataWeight,
			Metadata: recommend.MetadataWeights{
				Degree:   r.Content.Metadata.Degree,
				Level:    r.Content.Metadata.Level,
				Location: r.Content.Metadata.Location,
				Academic: r.Content.Metadata.Academic,
				Equity:   r.Content.Metadata.Equity,
			},
		},
		Weights: recommend.BlendWeights{Content: r.Weights.Content, CF: r.Weights.CF},
		ALS: recommend.ALSConfig{
			Factors:        r.ALS.Factors,
			Regularization: r.ALS.Regularization,
			Iterations:     r.ALS.Iterations,
			Alpha:          r.ALS.Alpha,
			Seed:           r.ALS.Seed,
			Solver:         recommend.ALSSolver(r.ALS.Solver),
			Workers:        r.ALS.Workers,
		},
		Calibration: recommend.CalibrationConfig{
			Folds:         r.Calibration.Folds,
			TestFraction:  r.Calibration.TestFraction,
			Seed:          r.Calibration.Seed,
			C:             r.Calibration.C,
			MaxIterations: r.Calibration.MaxIterations,
		},
		Fairness: recommend.FairnessConfig{K: c.Fairness.K, Constraints: constraints},
		Limits: recommend.LimitsConfig{
			DefaultTopN: r.DefaultTopN,
			MaxTopN:     r.MaxTopN,
			RankWorkers: r.RankWorkers,
		},
		Cache: recommend.CacheConfig{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL,
			MaxEntries: c.Cache.MaxEntries,
		},
	}
}

// Dataset converts the data settings into a dataset.Config.
func (c *Config) Dataset() dataset.Config {
	d := &c.Data
	return dataset.Config{
		Dir:               d.Dir,
		Students:          d.StudentsFile,
		Internships:       d.InternshipsFile,
		Interactions:      d.InteractionsFile,
		Outcomes:          d.OutcomesFile,
		SyntheticFallback: d.SyntheticFallback,
		Synthetic: dataset.SyntheticConfig{
			Persons:         d.Synthetic.Persons,
			Opportunities:   d.Synthetic.Opportunities,
			EventsPerPerson: d.Synthetic.EventsPerPerson,
			LabelsPerPerson: d.Synthetic.LabelsPerPerson,
			Seed:            d.Synthetic.Seed,
		},
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
