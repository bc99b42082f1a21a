// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package config

import (
	"reflect"
	"testing"

	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/recommend"
)

func TestPipelineMatchesRecommendDefaults(t *testing.T) {
	got := defaultConfig().Pipeline()
	want := recommend.DefaultConfig()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("defaultConfig().Pipeline() = %+v\nwant %+v", got, want)
	}
}

func TestDatasetMatchesDatasetDefaults(t *testing.T) {
	got := defaultConfig().Dataset()
	want := dataset.DefaultConfig()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("defaultConfig().Dataset() = %+v\nwant %+v", got, want)
	}
}

func TestPipelineCarriesOverrides(t *testing.T) {
	cfg := defaultConfig()
	cfg.Recommend.ALS.Solver = "reference"
	cfg.Fairness.Constraints = []ConstraintConfig{{Attribute: "gender", Share: 0.5}}
	cfg.Cache.Enabled = false

	p := cfg.Pipeline()
	if p.ALS.Solver != recommend.SolverReference {
		t.Errorf("ALS.Solver = %q", p.ALS.Solver)
	}
	if len(p.Fairness.Constraints) != 1 || p.Fairness.Constraints[0].Attribute != recommend.AttrGender {
		t.Errorf("Fairness.Constraints = %+v", p.Fairness.Constraints)
	}
	if p.Cache.Enabled {
		t.Error("Cache.Enabled should follow the loaded config")
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		origins []string
		want    bool
	}{
		{"development wildcard", "development", []string{"*"}, false},
		{"production wildcard", "production", []string{"https://x.example", "*"}, true},
		{"production explicit", "production", []string{"https://x.example"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Server.Environment = tt.env
			cfg.Security.CORSOrigins = tt.origins
			if got := cfg.ShouldWarnAboutCORS(); got != tt.want {
				t.Errorf("ShouldWarnAboutCORS() = %v, want %v", got, tt.want)
			}
		})
	}
}
