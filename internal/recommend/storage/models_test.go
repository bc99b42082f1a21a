// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/algorithms"
)

func testMatrix() *algorithms.InteractionMatrix {
	events := []recommend.InteractionEvent{
		{PersonID: "P1", OpportunityID: "O1", Type: recommend.EventApply},
		{PersonID: "P2", OpportunityID: "O2", Type: recommend.EventView},
	}
	return algorithms.BuildInteractionMatrix(events, []string{"P1", "P2"}, []string{"O1", "O2"})
}

func testState() *FactorState {
	m := testMatrix()
	f := &algorithms.Factors{
		Persons:       [][]float64{{0.1, 0.2}, {0.3, 0.4}},
		Opportunities: [][]float64{{0.5, 0.6}, {0.7, 0.8}},
	}
	return NewFactorState(m, f)
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "new_dir")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.setup(t))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if store == nil {
				t.Fatal("NewStore() returned nil store")
			}
		})
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	meta, err := store.Save(ctx, "als", testState(), ModelMetadata{
		SnapshotFingerprint: 42,
		ConfigHash:          7,
		Solver:              "optimized",
		TrainedAt:           time.Now(),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Version != 1 || meta.Checksum == "" || meta.SizeBytes == 0 {
		t.Errorf("Save() meta = %+v, want version 1 with checksum and size", meta)
	}

	state, got, err := store.Load(ctx, "als", 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Matches(42, 7) {
		t.Errorf("Matches(42, 7) = false, meta = %+v", got)
	}
	if got.Matches(42, 8) {
		t.Error("Matches(42, 8) = true, want false")
	}
	f, err := state.Factors(testMatrix())
	if err != nil {
		t.Fatalf("Factors() error = %v", err)
	}
	if f.Opportunities[1][1] != 0.8 {
		t.Errorf("Opportunities[1][1] = %v, want 0.8", f.Opportunities[1][1])
	}
}

func TestFactorStateRejectsDifferentIDs(t *testing.T) {
	other := algorithms.BuildInteractionMatrix(nil, []string{"P1", "P3"}, []string{"O1", "O2"})
	if _, err := testState().Factors(other); !errors.Is(err, ErrNotFound) {
		t.Errorf("Factors() error = %v, want ErrNotFound", err)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(context.Background(), "als", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(latest) error = %v, want ErrNotFound", err)
	}
	if _, _, err := store.Load(context.Background(), "als", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(v3) error = %v, want ErrNotFound", err)
	}
}

func TestStoreDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(context.Background(), "als", testState(), ModelMetadata{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "als_v1.gob.gz"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(context.Background(), "als", 1); err == nil {
		t.Error("Load() on corrupt file returned nil error")
	}
}

func TestStoreVersionsAndPrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := store.Save(ctx, "als", testState(), ModelMetadata{}); err != nil {
			t.Fatal(err)
		}
	}
	if v, ok := store.LatestVersion("als"); !ok || v != 4 {
		t.Fatalf("LatestVersion() = %d, %v, want 4", v, ok)
	}

	// A reopened store sees the same versions.
	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := reopened.LatestVersion("als"); v != 4 {
		t.Errorf("reopened LatestVersion() = %d, want 4", v)
	}

	removed, err := reopened.Prune(ctx, "als", 2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	list, err := reopened.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Version != 3 || list[1].Version != 4 {
		t.Errorf("List() = %+v, want versions 3 and 4", list)
	}
}

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		file    string
		name    string
		version int
		ok      bool
	}{
		{"als_v1.gob.gz", "als", 1, true},
		{"als_factors_v12.gob.gz", "als_factors", 12, true},
		{"als_v0.gob.gz", "", 0, false},
		{"als_v1.gob", "", 0, false},
		{"_v1.gob.gz", "", 0, false},
		{"als_vx.gob.gz", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			name, version, ok := parseModelFilename(tt.file)
			if name != tt.name || version != tt.version || ok != tt.ok {
				t.Errorf("parseModelFilename(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.file, name, version, ok, tt.name, tt.version, tt.ok)
			}
		})
	}
}

func TestConfigHash(t *testing.T) {
	base := recommend.DefaultConfig().ALS
	workers := base
	workers.Workers = base.Workers + 3
	if ConfigHash(base) != ConfigHash(workers) {
		t.Error("ConfigHash changed with worker count")
	}
	seed := base
	seed.Seed++
	if ConfigHash(base) == ConfigHash(seed) {
		t.Error("ConfigHash ignored seed")
	}
}
