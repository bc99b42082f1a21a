// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package recommend

import (
	"math"
	"strings"
)

// Neutral-fill policy, applied at every stage boundary:
//
//   - A missing or non-finite score becomes 0.0.
//   - A missing categorical value becomes CohortUnknown.
//   - A degenerate min-max range (max == min) normalizes to NeutralScore.
//
// Stages call these helpers instead of checking for NaN inline.

// NeutralScore is emitted for every value of a column with no variance.
const NeutralScore = 0.5

// CohortUnknown is the categorical sentinel for missing values. It never
// matches any cohort, including itself, in fairness passes.
const CohortUnknown = "unknown"

// FillScore maps a possibly missing score into [0,1]: NaN and ±Inf become 0,
// everything else is clamped.
func FillScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Clamp01(v)
}

// FillNumber returns def when v is NaN or infinite.
func FillNumber(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// FillCategory trims a categorical value and substitutes CohortUnknown when empty.
func FillCategory(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return CohortUnknown
	}
	return v
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// InUnitInterval reports whether v is a finite value in [0,1].
func InUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// ProtectedAttribute names an attribute that fairness quotas are enforced over.
type ProtectedAttribute string

const (
	// AttrLocale splits persons into rural and urban cohorts.
	AttrLocale ProtectedAttribute = "locale"
	// AttrTier splits persons into Tier-1 and Tier-2/3 institution cohorts.
	AttrTier ProtectedAttribute = "tier"
	// AttrGender splits persons into female, male and other cohorts.
	AttrGender ProtectedAttribute = "gender"
)

// Valid reports whether the attribute is one of the supported names.
func (a ProtectedAttribute) Valid() bool {
	switch a {
	case AttrLocale, AttrTier, AttrGender:
		return true
	default:
		return false
	}
}

// Cohort values produced by the normalizers.
const (
	CohortRural  = "rural"
	CohortUrban  = "urban"
	CohortTier1  = "tier_1"
	CohortTier23 = "tier_2_3"
	CohortFemale = "female"
	CohortMale   = "male"
	CohortOther  = "other"
)

// NormalizeLocale maps a raw locale or location to rural or urban.
func NormalizeLocale(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return CohortUnknown
	}
	if strings.Contains(v, "rural") {
		return CohortRural
	}
	return CohortUrban
}

// NormalizeTier maps an institution tier label to tier_1 or tier_2_3.
func NormalizeTier(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return CohortUnknown
	}
	switch strings.NewReplacer("-", "", "_", "", " ", "").Replace(v) {
	case "tier1", "1":
		return CohortTier1
	default:
		return CohortTier23
	}
}

// NormalizeGender maps a raw gender value to female, male or other.
func NormalizeGender(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return CohortUnknown
	case v == "f" || strings.Contains(v, "female") || strings.Contains(v, "woman"):
		return CohortFemale
	case v == "m" || strings.Contains(v, "male") || v == "man":
		return CohortMale
	default:
		return CohortOther
	}
}

// IsTier1 reports whether a raw tier label denotes a Tier-1 institution.
func IsTier1(tier string) bool {
	return NormalizeTier(tier) == CohortTier1
}

// Cohort returns the person's normalized cohort for attr.
func (p *Person) Cohort(attr ProtectedAttribute) string {
	switch attr {
	case AttrLocale:
		return NormalizeLocale(p.Locale)
	case AttrTier:
		return NormalizeTier(p.Tier)
	case AttrGender:
		return NormalizeGender(p.Gender)
	default:
		return CohortUnknown
	}
}

// Cohort returns the opportunity's target cohort for attr. Locale falls
// back to the work location when no explicit target is set.
func (o *Opportunity) Cohort(attr ProtectedAttribute) string {
	switch attr {
	case AttrLocale:
		if strings.TrimSpace(o.Locale) != "" {
			return NormalizeLocale(o.Locale)
		}
		return NormalizeLocale(o.Location)
	case AttrTier:
		return NormalizeTier(o.TierFocus)
	case AttrGender:
		return NormalizeGender(o.GenderFocus)
	default:
		return CohortUnknown
	}
}

// CohortsMatch reports whether two normalized cohort values match.
// CohortUnknown never matches.
func CohortsMatch(a, b string) bool {
	return a != CohortUnknown && b != CohortUnknown && a == b
}

// MissingSkills returns required skills the person lacks, in required
// order, compared case-insensitively.
func MissingSkills(required, have []string) []string {
	owned := make(map[string]struct{}, len(have))
	for _, s := range have {
		owned[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	missing := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, s := range required {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" {
			continue
		}
		if _, ok := owned[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, k)
	}
	return missing
}
