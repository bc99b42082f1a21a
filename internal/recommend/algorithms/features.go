// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"math"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/internrank/internal/recommend"
)

// NumericFeatures names the numeric columns of a FeatureRow, in order.
var NumericFeatures = []string{
	"hybrid_score",
	"cf_score",
	"academic_score",
	"stipend",
	"score_agreement",
	"location_match",
}

// CategoricalFeatures names the categorical columns of a FeatureRow, in order.
var CategoricalFeatures = []string{
	"tier",
	"domain",
	"location",
	"duration",
	"gender",
	"stream",
	"locale",
	"academic_bucket",
	"stipend_bucket",
}

// categoryMissing fills empty categorical values before one-hot encoding.
const categoryMissing = "missing"

// defaultAcademicScore is assumed when bucketing a missing academic score.
const defaultAcademicScore = 7.0

// FeatureRow is the raw calibrator input for one pair. Numeric values may
// be NaN (imputed later); categorical values may be empty (filled later).
type FeatureRow struct {
	Numeric     []float64
	Categorical []string
}

// BuildFeatureRow assembles features from the blended pair and both entities.
func BuildFeatureRow(ps *recommend.PairScore, p *recommend.Person, o *recommend.Opportunity) FeatureRow {
	locMatch := 0.0
	if LocationMatch(p.PreferredLocation, o.Location) == affinityExact {
		locMatch = 1
	}
	agreement := 1 - math.Abs(ps.ContentScore-ps.CFScore)

	return FeatureRow{
		Numeric: []float64{
			ps.HybridScore,
			ps.CFScore,
			p.AcademicScore,
			o.Stipend,
			agreement,
			locMatch,
		},
		Categorical: []string{
			strings.TrimSpace(p.Tier),
			strings.ToLower(strings.TrimSpace(o.Domain)),
			strings.TrimSpace(o.Location),
			strings.TrimSpace(o.Duration),
			recommend.NormalizeGender(p.Gender),
			strings.TrimSpace(p.Stream),
			recommend.NormalizeLocale(p.Locale),
			AcademicBucket(p.AcademicScore),
			StipendBucket(o.Stipend),
		},
	}
}

// AcademicBucket buckets a 10-point academic score. Missing scores are
// treated as 7.0.
func AcademicBucket(score float64) string {
	score = recommend.FillNumber(score, defaultAcademicScore)
	switch {
	case score < 7:
		return "Below_7"
	case score < 8:
		return "7-8"
	case score < 9:
		return "8-9"
	default:
		return "Above_9"
	}
}

// StipendBucket buckets a monthly stipend. Missing stipends are unpaid.
func StipendBucket(stipend float64) string {
	stipend = recommend.FillNumber(stipend, 0)
	switch {
	case stipend <= 0:
		return "Unpaid"
	case stipend <= 15000:
		return "Low_Pay"
	case stipend <= 25000:
		return "Medium_Pay"
	default:
		return "High_Pay"
	}
}

// Preprocessor imputes and scales numeric columns (median fill, then
// standardization) and one-hot encodes categorical columns (constant fill,
// unseen categories encode to all zeros).
type Preprocessor struct {
	medians    []float64
	means      []float64
	scales     []float64
	categories [][]string
	offsets    []int
	width      int
}

// FitPreprocessor learns imputation, scaling and category tables from rows.
func FitPreprocessor(rows []FeatureRow) *Preprocessor {
	nNum := len(NumericFeatures)
	nCat := len(CategoricalFeatures)
	p := &Preprocessor{
		medians:    make([]float64, nNum),
		means:      make([]float64, nNum),
		scales:     make([]float64, nNum),
		categories: make([][]string, nCat),
		offsets:    make([]int, nCat),
	}

	col := make([]float64, 0, len(rows))
	for j := 0; j < nNum; j++ {
		col = col[:0]
		for i := range rows {
			if v := rows[i].Numeric[j]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				col = append(col, v)
			}
		}
		if len(col) > 0 {
			sort.Float64s(col)
			p.medians[j] = stat.Quantile(0.5, stat.Empirical, col, nil)
		}

		filled := make([]float64, len(rows))
		for i := range rows {
			filled[i] = recommend.FillNumber(rows[i].Numeric[j], p.medians[j])
		}
		if len(filled) > 0 {
			mean, std := stat.PopMeanStdDev(filled, nil)
			p.means[j] = mean
			p.scales[j] = std
		}
		if p.scales[j] == 0 || math.IsNaN(p.scales[j]) {
			p.scales[j] = 1
		}
	}

	width := nNum
	for j := 0; j < nCat; j++ {
		seen := make(map[string]struct{})
		for i := range rows {
			seen[fillCategory(rows[i].Categorical[j])] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		p.categories[j] = cats
		p.offsets[j] = width
		width += len(cats)
	}
	p.width = width
	return p
}

// Width returns the encoded vector length.
func (p *Preprocessor) Width() int { return p.width }

// Transform encodes one row.
func (p *Preprocessor) Transform(row FeatureRow) []float64 {
	out := make([]float64, p.width)
	for j := range p.medians {
		v := recommend.FillNumber(row.Numeric[j], p.medians[j])
		out[j] = (v - p.means[j]) / p.scales[j]
	}
	for j, cats := range p.categories {
		if k, ok := slices.BinarySearch(cats, fillCategory(row.Categorical[j])); ok {
			out[p.offsets[j]+k] = 1
		}
	}
	return out
}

// TransformAll encodes every row.
func (p *Preprocessor) TransformAll(rows []FeatureRow) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = p.Transform(rows[i])
	}
	return out
}

func fillCategory(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == recommend.CohortUnknown {
		return categoryMissing
	}
	return v
}
