// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// EvalMetrics are held-out calibrator diagnostics. They are reported, not
// used as gates.
type EvalMetrics struct {
	// ROCAUC measures discrimination. 0.5 when undefined (single class).
	ROCAUC float64 `json:"roc_auc"`

	// AveragePrecision measures ranking quality of positives.
	AveragePrecision float64 `json:"average_precision"`

	// Brier is the mean squared error of the probabilities; lower is better.
	Brier float64 `json:"brier"`

	// PositiveRate is the share of positive labels in the evaluated set.
	PositiveRate float64 `json:"positive_rate"`

	// MeanPrediction is the mean predicted probability.
	MeanPrediction float64 `json:"mean_prediction"`

	TestSamples  int `json:"test_samples"`
	TrainSamples int `json:"train_samples"`

	// Defined is false when the evaluated set lacks one of the classes.
	Defined bool `json:"defined"`
}

// Evaluate computes discrimination, ranking and calibration metrics.
func Evaluate(y []int, probs []float64) EvalMetrics {
	m := EvalMetrics{TestSamples: len(y), ROCAUC: 0.5}
	if len(y) == 0 {
		return m
	}

	var pos int
	var brier, sum float64
	for i, v := range y {
		pos += v
		d := probs[i] - float64(v)
		brier += d * d
		sum += probs[i]
	}
	n := float64(len(y))
	m.Brier = brier / n
	m.MeanPrediction = sum / n
	m.PositiveRate = float64(pos) / n

	if pos == 0 || pos == len(y) {
		return m
	}
	m.Defined = true
	m.ROCAUC = ROCAUC(y, probs)
	m.AveragePrecision = AveragePrecision(y, probs)
	return m
}

// ROCAUC returns the area under the ROC curve.
func ROCAUC(y []int, scores []float64) float64 {
	s := append([]float64(nil), scores...)
	classes := make([]bool, len(y))
	for i, v := range y {
		classes[i] = v == 1
	}
	stat.SortWeightedLabeled(s, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, s, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// AveragePrecision is sum_n (R_n - R_{n-1}) * P_n over descending
// score thresholds, with tied scores forming a single threshold.
func AveragePrecision(y []int, scores []float64) float64 {
	idx := make([]int, len(y))
	var totalPos int
	for i := range idx {
		idx[i] = i
		totalPos += y[i]
	}
	if totalPos == 0 {
		return 0
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	var ap, prevRecall float64
	var tp, seen int
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && scores[idx[j]] == scores[idx[i]] {
			tp += y[idx[j]]
			seen++
			j++
		}
		recall := float64(tp) / float64(totalPos)
		precision := float64(tp) / float64(seen)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		i = j
	}
	return ap
}
