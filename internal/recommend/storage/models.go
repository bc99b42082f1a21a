// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/algorithms"
)

// ErrNotFound is returned when no stored model matches the request.
var ErrNotFound = errors.New("storage: model not found")

const fileSuffix = ".gob.gz"

// ModelMetadata describes a stored factor model.
type ModelMetadata struct {
	// Name is the model family, e.g. "als".
	Name string `json:"name"`

	// Version increases monotonically per name.
	Version int `json:"version"`

	// SnapshotFingerprint identifies the input snapshot the model was fit on.
	SnapshotFingerprint uint64 `json:"snapshot_fingerprint"`

	// ConfigHash identifies the ALS hyperparameters.
	ConfigHash uint64 `json:"config_hash"`

	// Solver is the backend that produced the factors.
	Solver string `json:"solver"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	Persons       int `json:"persons"`
	Opportunities int `json:"opportunities"`
	Interactions  int `json:"interactions"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Matches reports whether the model was fit on the given snapshot and
// configuration.
func (m *ModelMetadata) Matches(fingerprint, configHash uint64) bool {
	return m.SnapshotFingerprint == fingerprint && m.ConfigHash == configHash
}

// FactorState is the serialized form of fitted ALS factors. Ids are kept so
// a load can verify row order against the current matrix.
type FactorState struct {
	PersonIDs      []string
	OpportunityIDs []string
	Persons        [][]float64
	Opportunities  [][]float64
}

// NewFactorState captures f for the ids of m.
func NewFactorState(m *algorithms.InteractionMatrix, f *algorithms.Factors) *FactorState {
	return &FactorState{
		PersonIDs:      m.PersonIDs,
		OpportunityIDs: m.OpportunityIDs,
		Persons:        f.Persons,
		Opportunities:  f.Opportunities,
	}
}

// Factors returns the factors if the stored ids line up with m.
func (s *FactorState) Factors(m *algorithms.InteractionMatrix) (*algorithms.Factors, error) {
	if !slices.Equal(s.PersonIDs, m.PersonIDs) || !slices.Equal(s.OpportunityIDs, m.OpportunityIDs) {
		return nil, fmt.Errorf("%w: stored ids differ from matrix", ErrNotFound)
	}
	return &algorithms.Factors{Persons: s.Persons, Opportunities: s.Opportunities}, nil
}

// ConfigHash hashes the ALS settings that change fitted factors. Workers is
// excluded.
func ConfigHash(cfg recommend.ALSConfig) uint64 {
	s := fmt.Sprintf("%d|%g|%d|%g|%d|%s", cfg.Factors, cfg.Regularization, cfg.Iterations, cfg.Alpha, cfg.Seed, cfg.Solver)
	return xxhash.Sum64String(s)
}

// Store persists models as gzip-compressed gob files named
// {name}_v{version}.gob.gz. Safe for concurrent use.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	versions map[string][]int
}

// storedFile is the on-disk layout.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// NewStore opens a store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	s := &Store{baseDir: baseDir, versions: make(map[string][]int)}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	return s, nil
}

func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		s.versions[name] = append(s.versions[name], version)
	}
	for name := range s.versions {
		slices.Sort(s.versions[name])
	}
	return nil
}

// parseModelFilename splits "als_v3.gob.gz" into ("als", 3).
func parseModelFilename(file string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(file, fileSuffix)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(base[i+2:])
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return base[:i], v, true
}

// Save writes state as the next version of name and returns the stored
// metadata.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, state *FactorState, meta ModelMetadata) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(state); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	version := 1
	if vs := s.versions[name]; len(vs) > 0 {
		version = vs[len(vs)-1] + 1
	}
	meta.Name = name
	meta.Version = version
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()

	// Write to a temp file and rename so readers never see a partial model.
	final := s.modelPath(name, version)
	tmp := final + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path is built from a trusted name
	if err != nil {
		return nil, fmt.Errorf("create model file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("write model file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return nil, fmt.Errorf("commit model file: %w", err)
	}

	s.versions[name] = append(s.versions[name], version)
	return &meta, nil
}

// Load reads a model. Version 0 selects the latest.
func (s *Store) Load(ctx context.Context, name string, version int) (*FactorState, *ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		vs := s.versions[name]
		if len(vs) == 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = vs[len(vs)-1]
	}

	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}
	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, got)
	}

	var state FactorState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	return &state, &sf.Metadata, nil
}

func (s *Store) readFile(name string, version int) (*storedFile, error) {
	f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is built from a trusted name
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the newest version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[name]
	if len(vs) == 0 {
		return 0, false
	}
	return vs[len(vs)-1], true
}

// List returns metadata for every stored version, oldest first per name.
// Unreadable files are skipped.
func (s *Store) List(ctx context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []ModelMetadata
	for _, name := range names {
		for _, v := range s.versions[name] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sf, err := s.readFile(name, v)
			if err != nil {
				continue
			}
			out = append(out, sf.Metadata)
		}
	}
	return out, nil
}

// Prune deletes all but the newest keep versions of name.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	vs := s.versions[name]
	if len(vs) <= keep {
		return 0, nil
	}
	drop := vs[:len(vs)-keep]
	removed := 0
	var errs []error
	for _, v := range drop {
		if err := os.Remove(s.modelPath(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	s.versions[name] = slices.Clone(vs[len(vs)-keep:])
	return removed, errors.Join(errs...)
}

func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
