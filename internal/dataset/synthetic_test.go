// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package dataset

import (
	"testing"

	"github.com/tomtom215/internrank/internal/recommend"
)

func TestSyntheticDeterministic(t *testing.T) {
	a := Synthetic(DefaultSyntheticConfig())
	b := Synthetic(DefaultSyntheticConfig())
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("same seed produced different snapshots")
	}
	cfg := DefaultSyntheticConfig()
	cfg.Seed++
	if Synthetic(cfg).Fingerprint() == a.Fingerprint() {
		t.Error("different seeds produced identical snapshots")
	}
}

func TestSyntheticShape(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	snap := Synthetic(cfg)
	if len(snap.Persons) != cfg.Persons || len(snap.Opportunities) != cfg.Opportunities {
		t.Fatalf("sizes = %d/%d", len(snap.Persons), len(snap.Opportunities))
	}
	if len(snap.Events) != cfg.Persons*cfg.EventsPerPerson {
		t.Errorf("events = %d, want %d", len(snap.Events), cfg.Persons*cfg.EventsPerPerson)
	}

	pos, neg := 0, 0
	for _, l := range snap.Labels {
		if l.Success() == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos < 20 || neg < 20 {
		t.Errorf("labels positive=%d negative=%d, want both classes well represented", pos, neg)
	}

	cohorts := map[string]int{}
	for i := range snap.Persons {
		cohorts[snap.Persons[i].Cohort(recommend.AttrLocale)]++
	}
	if cohorts[recommend.CohortRural] == 0 || cohorts[recommend.CohortUrban] == 0 {
		t.Errorf("locale cohorts = %v, want both present", cohorts)
	}
	rural := 0
	for i := range snap.Opportunities {
		if snap.Opportunities[i].Cohort(recommend.AttrLocale) == recommend.CohortRural {
			rural++
		}
	}
	if rural == 0 {
		t.Error("no rural opportunities generated")
	}
}
