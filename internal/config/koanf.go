// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/recommend"
)

// DefaultConfigPaths lists where a config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/internrank/config.yaml",
	"/etc/internrank/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading files or
// the environment.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig mirrors recommend.DefaultConfig and dataset.DefaultConfig
// so the pipeline defaults live in one place.
func defaultConfig() *Config {
	rc := recommend.DefaultConfig()
	dc := dataset.DefaultConfig()

	constraints := make([]ConstraintConfig, len(rc.Fairness.Constraints))
	for i, c := range rc.Fairness.Constraints {
		constraints[i] = ConstraintConfig{Attribute: string(c.Attribute), Share: c.Share}
	}

	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    15 * time.Second,
			RequestTimeout:     10 * time.Second,
			BreakerFailures:    5,
			BreakerOpenTimeout: 30 * time.Second,
			Environment:        "development",
		},
		Data: DataConfig{
			Dir:               dc.Dir,
			StudentsFile:      dc.Students,
			InternshipsFile:   dc.Internships,
			InteractionsFile:  dc.Interactions,
			OutcomesFile:      dc.Outcomes,
			SyntheticFallback: dc.SyntheticFallback,
			Synthetic: SyntheticConfig{
				Persons:         dc.Synthetic.Persons,
				Opportunities:   dc.Synthetic.Opportunities,
				EventsPerPerson: dc.Synthetic.EventsPerPerson,
				LabelsPerPerson: dc.Synthetic.LabelsPerPerson,
				Seed:            dc.Synthetic.Seed,
			},
		},
		Recommend: RecommendConfig{
			MaxFeatures: rc.Vectorizer.MaxFeatures,
			MaxDocFreq:  rc.Vectorizer.MaxDocFreq,
			Content: ContentConfig{
				CosineWeight:   rc.Content.CosineWeight,
				MetadataWeight: rc.Content.MetadataWeight,
				Metadata: MetadataConfig{
					Degree:   rc.Content.Metadata.Degree,
					Level:    rc.Content.Metadata.Level,
					Location: rc.Content.Metadata.Location,
					Academic: rc.Content.Metadata.Academic,
					Equity:   rc.Content.Metadata.Equity,
				},
			},
			Weights: WeightsConfig{Content: rc.Weights.Content, CF: rc.Weights.CF},
			ALS: ALSConfig{
				Factors:        rc.ALS.Factors,
				Regularization: rc.ALS.Regularization,
				Iterations:     rc.ALS.Iterations,
				Alpha:          rc.ALS.Alpha,
				Seed:           rc.ALS.Seed,
				Solver:         string(rc.ALS.Solver),
				Workers:        rc.ALS.Workers,
			},
			Calibration: CalibrationConfig{
				Folds:         rc.Calibration.Folds,
				TestFraction:  rc.Calibration.TestFraction,
				Seed:          rc.Calibration.Seed,
				C:             rc.Calibration.C,
				MaxIterations: rc.Calibration.MaxIterations,
			},
			DefaultTopN: rc.Limits.DefaultTopN,
			MaxTopN:     rc.Limits.MaxTopN,
			RankWorkers: rc.Limits.RankWorkers,
			ModelDir:    "",
		},
		Fairness: FairnessConfig{
			K:           rc.Fairness.K,
			Constraints: constraints,
		},
		Cache: CacheConfig{
			Enabled:    rc.Cache.Enabled,
			TTL:        rc.Cache.TTL,
			MaxEntries: rc.Cache.MaxEntries,
			Persistent: PersistentConfig{
				Enabled: false,
				Dir:     "/data/cache",
				TTL:     time.Hour,
			},
		},
		Refresh: RefreshConfig{
			Interval:        0,
			Timeout:         10 * time.Minute,
			ManualPerMinute: 2,
			ManualBurst:     1,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from three layers:
//  1. Defaults
//  2. Optional YAML config file
//  3. Mapped environment variables (highest priority)
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processConstraints(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for list settings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// processConstraints parses FAIRNESS_CONSTRAINTS, written as
// "locale=0.3,tier=0.3,gender=0.2", into the constraint list. "none"
// clears every constraint.
func processConstraints(k *koanf.Koanf) error {
	const path = "fairness.constraints"
	strVal, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	list := make([]map[string]interface{}, 0, 3)
	strVal = strings.TrimSpace(strVal)
	if strVal != "" && !strings.EqualFold(strVal, "none") {
		for _, item := range strings.Split(strVal, ",") {
			attr, share, found := strings.Cut(strings.TrimSpace(item), "=")
			if !found {
				return fmt.Errorf("%w: fairness constraint %q must be attribute=share", recommend.ErrInvalidConfig, item)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(share), 64)
			if err != nil {
				return fmt.Errorf("%w: fairness constraint %q: %w", recommend.ErrInvalidConfig, item, err)
			}
			list = append(list, map[string]interface{}{
				"attribute": strings.ToLower(strings.TrimSpace(attr)),
				"share":     v,
			})
		}
	}
	if err := k.Set(path, list); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// envMappings maps lowercased environment variable names to config keys.
// Unmapped variables are ignored so unrelated environment does not leak
// into the configuration.
var envMappings = map[string]string{
	// Server
	"http_host":            "server.host",
	"http_port":            "server.port",
	"http_read_timeout":    "server.read_timeout",
	"http_write_timeout":   "server.write_timeout",
	"http_idle_timeout":    "server.idle_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"request_timeout":      "server.request_timeout",
	"breaker_failures":     "server.breaker_failures",
	"breaker_open_timeout": "server.breaker_open_timeout",
	"environment":          "server.environment",

	// Data
	"data_dir":                "data.dir",
	"data_students_file":      "data.students_file",
	"data_internships_file":   "data.internships_file",
	"data_interactions_file":  "data.interactions_file",
	"data_outcomes_file":      "data.outcomes_file",
	"data_synthetic_fallback": "data.synthetic_fallback",
	"synthetic_persons":       "data.synthetic.persons",
	"synthetic_opportunities": "data.synthetic.opportunities",
	"synthetic_seed":          "data.synthetic.seed",

	// Scoring
	"recommend_max_features":     "recommend.max_features",
	"recommend_cosine_weight":    "recommend.content.cosine_weight",
	"recommend_metadata_weight":  "recommend.content.metadata_weight",
	"recommend_content_weight":   "recommend.weights.content",
	"recommend_cf_weight":        "recommend.weights.cf",
	"recommend_default_top_n":    "recommend.default_top_n",
	"recommend_max_top_n":        "recommend.max_top_n",
	"recommend_rank_workers":     "recommend.rank_workers",
	"recommend_model_dir":        "recommend.model_dir",
	"als_factors":                "recommend.als.factors",
	"als_regularization":         "recommend.als.regularization",
	"als_iterations":             "recommend.als.iterations",
	"als_alpha":                  "recommend.als.alpha",
	"als_seed":                   "recommend.als.seed",
	"als_solver":                 "recommend.als.solver",
	"als_workers":                "recommend.als.workers",
	"calibration_folds":          "recommend.calibration.folds",
	"calibration_test_fraction":  "recommend.calibration.test_fraction",
	"calibration_seed":           "recommend.calibration.seed",
	"calibration_c":              "recommend.calibration.c",
	"calibration_max_iterations": "recommend.calibration.max_iterations",

	// Fairness
	"fairness_k":           "fairness.k",
	"fairness_constraints": "fairness.constraints",

	// Cache
	"cache_enabled":        "cache.enabled",
	"cache_ttl":            "cache.ttl",
	"cache_max_entries":    "cache.max_entries",
	"cache_persistent":     "cache.persistent.enabled",
	"cache_dir":            "cache.persistent.dir",
	"cache_persistent_ttl": "cache.persistent.ttl",

	// Refresh
	"refresh_interval":          "refresh.interval",
	"refresh_timeout":           "refresh.timeout",
	"refresh_manual_per_minute": "refresh.manual_per_minute",
	"refresh_manual_burst":      "refresh.manual_burst",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config key,
// or "" to skip it. For example HTTP_PORT becomes server.port and
// RECOMMEND_CF_WEIGHT becomes recommend.weights.cf.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
