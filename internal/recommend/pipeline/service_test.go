// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package pipeline

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/dataset"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/algorithms"
	"github.com/tomtom215/internrank/internal/recommend/storage"
)

func testConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.ALS.Factors = 8
	cfg.ALS.Iterations = 8
	cfg.ALS.Workers = 2
	cfg.Calibration.Folds = 2
	cfg.Limits.RankWorkers = 4
	return cfg
}

func testSnapshot() *recommend.Snapshot {
	return dataset.Synthetic(dataset.SyntheticConfig{
		Persons:         80,
		Opportunities:   24,
		EventsPerPerson: 5,
		LabelsPerPerson: 4,
		Seed:            7,
	})
}

func newTestService(t *testing.T, snap *recommend.Snapshot, cfg *recommend.Config, opts ...Option) *Service {
	t.Helper()
	s, err := New(context.Background(), snap, cfg, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// smallCatalogue has a cold person P3 with no events and a balanced
// set of outcome labels over every pair.
func smallCatalogue() *recommend.Snapshot {
	snap := &recommend.Snapshot{
		Persons: []recommend.Person{
			{ID: "P1", Skills: []string{"python", "sql"}, AcademicScore: 8.7, Tier: "Tier-2", Locale: "rural",
				Gender: "female", Interests: "data science", PreferredLocation: "Bangalore"},
			{ID: "P2", Skills: []string{"javascript", "react"}, AcademicScore: 7.4, Tier: "Tier-1", Locale: "urban",
				Gender: "male", Interests: "web development", PreferredLocation: "Mumbai"},
			{ID: "P3", Skills: []string{"figma", "illustrator"}, AcademicScore: 8.1, Tier: "Tier-3", Locale: "urban",
				Gender: "female", Interests: "graphic design", PreferredLocation: "Delhi"},
			{ID: "P4", Skills: []string{"python", "statistics"}, AcademicScore: 6.9, Tier: "Tier-2", Locale: "rural",
				Gender: "male", Interests: "data science", PreferredLocation: "Pune"},
		},
		Opportunities: []recommend.Opportunity{
			{ID: "O1", Title: "Data Analyst Intern", Domain: "data science", RequiredSkills: []string{"python", "sql"},
				Location: "Bangalore", Stipend: 20000, Description: "Analyse datasets with python and sql."},
			{ID: "O2", Title: "Frontend Intern", Domain: "web development", RequiredSkills: []string{"javascript", "react"},
				Location: "Mumbai", Stipend: 15000, Description: "Build interfaces in react."},
			{ID: "O3", Title: "Design Intern", Domain: "graphic design", RequiredSkills: []string{"figma", "illustrator"},
				Location: "Delhi", Stipend: 8000, Description: "Create creatives in figma."},
			{ID: "O4", Title: "Rural Data Fellow", Domain: "data science", RequiredSkills: []string{"python", "statistics"},
				Location: "Rural Karnataka", Stipend: 10000, Description: "Survey analysis with python."},
			{ID: "O5", Title: "Marketing Intern", Domain: "marketing", RequiredSkills: []string{"seo", "communication"},
				Location: "Pune", Stipend: 5000, Description: "Run social campaigns."},
		},
		Events: []recommend.InteractionEvent{
			{PersonID: "P1", OpportunityID: "O1", Type: recommend.EventApply},
			{PersonID: "P1", OpportunityID: "O4", Type: recommend.EventView},
			{PersonID: "P2", OpportunityID: "O2", Type: recommend.EventApply},
			{PersonID: "P2", OpportunityID: "O5", Type: recommend.EventClick},
			{PersonID: "P4", OpportunityID: "O4", Type: recommend.EventSave},
			{PersonID: "P4", OpportunityID: "O1", Type: recommend.EventView},
			{PersonID: "P9", OpportunityID: "O1", Type: recommend.EventView},
		},
	}
	good := map[string]string{"P1": "O1", "P2": "O2", "P3": "O3", "P4": "O4"}
	for _, p := range snap.Persons {
		for _, o := range snap.Opportunities {
			status := "rejected"
			if good[p.ID] == o.ID || (p.Interests == o.Domain && o.ID != "O5") {
				status = "selected"
			}
			snap.Labels = append(snap.Labels, recommend.OutcomeLabel{PersonID: p.ID, OpportunityID: o.ID, Status: status})
		}
	}
	// Balance the classes so both survive a stratified split.
	for _, o := range []string{"O5", "O3", "O2"} {
		snap.Labels = append(snap.Labels, recommend.OutcomeLabel{PersonID: "P3", OpportunityID: o, Status: "selected"})
	}
	return snap
}

func TestNewScoresInUnitInterval(t *testing.T) {
	cfg := testConfig()
	s := newTestService(t, testSnapshot(), cfg)

	for _, id := range s.PersonIDs() {
		pairs, err := s.PairScores(id)
		if err != nil {
			t.Fatalf("PairScores(%s) error = %v", id, err)
		}
		for _, ps := range pairs {
			for name, v := range map[string]float64{
				"content": ps.ContentScore, "cf": ps.CFScore, "hybrid": ps.HybridScore, "success": ps.SuccessProb,
			} {
				if !recommend.InUnitInterval(v) {
					t.Fatalf("%s/%s %s = %v, want in [0,1]", ps.PersonID, ps.OpportunityID, name, v)
				}
			}
		}
		reblended, err := algorithms.Reblend(pairs, cfg.Weights)
		if err != nil {
			t.Fatal(err)
		}
		for i := range pairs {
			if math.Abs(reblended[i]-pairs[i].HybridScore) > 1e-9 {
				t.Fatalf("hybrid score %v does not re-sum to %v", pairs[i].HybridScore, reblended[i])
			}
		}
	}

	d := s.Diagnostics()
	for _, stage := range []string{"content", "matrix", "als", "blend", "calibrate", "predict"} {
		if _, ok := d.Stages[stage]; !ok {
			t.Errorf("Diagnostics().Stages missing %q", stage)
		}
	}
	if d.LabelledPairs == 0 || d.Fingerprint == "" {
		t.Errorf("Diagnostics() = %+v", d)
	}
}

func TestNewDeterministic(t *testing.T) {
	a := newTestService(t, testSnapshot(), testConfig())
	b := newTestService(t, testSnapshot(), testConfig())
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("fingerprints differ for identical input")
	}
	for _, id := range a.PersonIDs()[:10] {
		sa, err := a.Rank(context.Background(), id, 5)
		if err != nil {
			t.Fatal(err)
		}
		sb, err := b.Rank(context.Background(), id, 5)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(sa.OpportunityIDs(), sb.OpportunityIDs()) {
			t.Errorf("Rank(%s) = %v vs %v", id, sa.OpportunityIDs(), sb.OpportunityIDs())
		}
		for i := range sa.Entries {
			if sa.Entries[i].SuccessProb != sb.Entries[i].SuccessProb {
				t.Errorf("Rank(%s)[%d] success %v vs %v", id, i, sa.Entries[i].SuccessProb, sb.Entries[i].SuccessProb)
			}
		}
	}
}

func TestNewPairScoresBitIdentical(t *testing.T) {
	a := newTestService(t, testSnapshot(), testConfig())
	b := newTestService(t, testSnapshot(), testConfig())

	same := func(x, y float64) bool { return math.Float64bits(x) == math.Float64bits(y) }
	for _, id := range a.PersonIDs() {
		pa, err := a.PairScores(id)
		if err != nil {
			t.Fatal(err)
		}
		pb, err := b.PairScores(id)
		if err != nil {
			t.Fatal(err)
		}
		if len(pa) != len(pb) {
			t.Fatalf("PairScores(%s) lengths %d vs %d", id, len(pa), len(pb))
		}
		for i := range pa {
			x, y := pa[i], pb[i]
			if x.OpportunityID != y.OpportunityID ||
				!same(x.ContentScore, y.ContentScore) ||
				!same(x.CFScore, y.CFScore) ||
				!same(x.HybridScore, y.HybridScore) ||
				!same(x.SuccessProb, y.SuccessProb) {
				t.Fatalf("PairScores(%s)[%d] = %+v vs %+v", id, i, x, y)
			}
		}
	}
}

func TestCalibratorTrainsOnEveryPair(t *testing.T) {
	snap := testSnapshot()
	s := newTestService(t, snap, testConfig())

	pairs := 0
	for _, id := range s.PersonIDs() {
		ps, err := s.PairScores(id)
		if err != nil {
			t.Fatal(err)
		}
		pairs += len(ps)
	}
	d := s.Diagnostics()
	if d.TrainingRows != pairs {
		t.Errorf("TrainingRows = %d, want every blended pair (%d)", d.TrainingRows, pairs)
	}
	if d.LabelledPairs != len(snap.Labels) {
		t.Errorf("LabelledPairs = %d, want %d", d.LabelledPairs, len(snap.Labels))
	}
	if d.LabelledPairs >= d.TrainingRows {
		t.Errorf("LabelledPairs = %d should be below TrainingRows = %d", d.LabelledPairs, d.TrainingRows)
	}
}

func TestCalibratorJoinRepeatsAndSkipsLabels(t *testing.T) {
	snap := smallCatalogue()
	snap.Labels = append(snap.Labels, recommend.OutcomeLabel{PersonID: "ghost", OpportunityID: "O1", Status: "selected"})
	s := newTestService(t, snap, testConfig())

	d := s.Diagnostics()
	// 4 persons x 5 opportunities, all labelled, plus three repeated P3 labels.
	if d.LabelledPairs != 20 {
		t.Errorf("LabelledPairs = %d, want 20", d.LabelledPairs)
	}
	if d.TrainingRows != 23 {
		t.Errorf("TrainingRows = %d, want 23", d.TrainingRows)
	}
}

func TestNewColdPersonUsesContentOnly(t *testing.T) {
	s := newTestService(t, smallCatalogue(), testConfig())

	pairs, err := s.PairScores("P3")
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 5 {
		t.Fatalf("P3 has %d pairs, want 5", len(pairs))
	}
	var design recommend.PairScore
	for _, ps := range pairs {
		if ps.CFScore != 0 || ps.HasCFScore {
			t.Errorf("cold person pair %s cf = %v (has=%v), want 0", ps.OpportunityID, ps.CFScore, ps.HasCFScore)
		}
		if ps.OpportunityID == "O3" {
			design = ps
		}
	}
	for _, ps := range pairs {
		if ps.OpportunityID != "O3" && ps.ContentScore > design.ContentScore {
			t.Errorf("content score for %s (%v) beats the matching design role (%v)", ps.OpportunityID, ps.ContentScore, design.ContentScore)
		}
	}

	d := s.Diagnostics()
	if d.Matrix.Dropped != 1 {
		t.Errorf("Matrix.Dropped = %d, want 1 (unknown person P9)", d.Matrix.Dropped)
	}
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	bad := testConfig()
	bad.Weights = recommend.BlendWeights{Content: 0.5, CF: 0.6}
	if _, err := New(ctx, testSnapshot(), bad, zerolog.Nop()); !errors.Is(err, recommend.ErrInvalidConfig) {
		t.Errorf("invalid weights: error = %v, want ErrInvalidConfig", err)
	}

	if _, err := New(ctx, nil, testConfig(), zerolog.Nop()); !errors.Is(err, recommend.ErrDataUnavailable) {
		t.Errorf("nil snapshot: error = %v, want ErrDataUnavailable", err)
	}

	oneClass := smallCatalogue()
	for i := range oneClass.Labels {
		oneClass.Labels[i].Status = "rejected"
	}
	if _, err := New(ctx, oneClass, testConfig(), zerolog.Nop()); !errors.Is(err, recommend.ErrModelUnavailable) {
		t.Errorf("single-class labels: error = %v, want ErrModelUnavailable", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := New(cancelled, testSnapshot(), testConfig(), zerolog.Nop()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled build: error = %v, want context.Canceled", err)
	}
}

func TestNewReusesStoredFactors(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap := testSnapshot()

	first := newTestService(t, snap, testConfig(), WithModelStore(store))
	if first.Diagnostics().FactorsLoaded {
		t.Fatal("first build should train, not load")
	}
	second := newTestService(t, snap, testConfig(), WithModelStore(store))
	if !second.Diagnostics().FactorsLoaded {
		t.Fatal("second build should reuse stored factors")
	}

	id := snap.Persons[0].ID
	a, _ := first.PairScores(id)
	b, _ := second.PairScores(id)
	for i := range a {
		if math.Abs(a[i].CFScore-b[i].CFScore) > 1e-12 {
			t.Errorf("cf score %d: trained %v, loaded %v", i, a[i].CFScore, b[i].CFScore)
		}
	}

	changed := testConfig()
	changed.ALS.Seed++
	if newTestService(t, snap, changed, WithModelStore(store)).Diagnostics().FactorsLoaded {
		t.Error("factors trained with another seed must not be reused")
	}
}
