// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"math"
	"testing"
)

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		y      []int
		scores []float64
		want   float64
	}{
		{"perfect", []int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 1},
		{"reversed", []int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}, 0},
		{"one swap", []int{0, 1, 0, 1}, []float64{0.1, 0.2, 0.3, 0.4}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ROCAUC(tt.y, tt.scores); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name   string
		y      []int
		scores []float64
		want   float64
	}{
		{"perfect", []int{0, 1, 1}, []float64{0.1, 0.9, 0.8}, 1},
		// ranking 1,0,1: P@1 = 1 at recall .5, P@3 = 2/3 at recall 1.
		{"interleaved", []int{1, 0, 1}, []float64{0.9, 0.8, 0.7}, 0.5 + 0.5*2.0/3},
		{"all tied", []int{1, 0, 0, 0}, []float64{0.5, 0.5, 0.5, 0.5}, 0.25},
		{"no positives", []int{0, 0}, []float64{0.3, 0.4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AveragePrecision(tt.y, tt.scores); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AveragePrecision() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	m := Evaluate([]int{0, 1, 1, 0}, []float64{0.2, 0.9, 0.6, 0.4})
	if !m.Defined {
		t.Fatal("Defined = false for two-class labels")
	}
	if math.Abs(m.ROCAUC-1) > 1e-9 {
		t.Errorf("ROCAUC = %v, want 1", m.ROCAUC)
	}
	if want := (0.04 + 0.01 + 0.16 + 0.16) / 4; math.Abs(m.Brier-want) > 1e-12 {
		t.Errorf("Brier = %v, want %v", m.Brier, want)
	}
	if m.PositiveRate != 0.5 || math.Abs(m.MeanPrediction-0.525) > 1e-12 {
		t.Errorf("PositiveRate = %v, MeanPrediction = %v", m.PositiveRate, m.MeanPrediction)
	}
	if m.TestSamples != 4 {
		t.Errorf("TestSamples = %d, want 4", m.TestSamples)
	}
}

func TestEvaluateSingleClassIsUndefined(t *testing.T) {
	for _, y := range [][]int{{0, 0, 0}, {1, 1, 1}, {}} {
		m := Evaluate(y, make([]float64, len(y)))
		if m.Defined {
			t.Errorf("Evaluate(%v).Defined = true", y)
		}
		if m.ROCAUC != 0.5 {
			t.Errorf("Evaluate(%v).ROCAUC = %v, want 0.5", y, m.ROCAUC)
		}
	}
}
