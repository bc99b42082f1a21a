// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/internrank/internal/recommend"
)

// Config locates the four input tables.
type Config struct {
	Dir          string `validate:"required"`
	Students     string `validate:"required"`
	Internships  string `validate:"required"`
	Interactions string `validate:"required"`
	Outcomes     string `validate:"required"`

	// SyntheticFallback generates a sample snapshot when a required table
	// is unavailable.
	SyntheticFallback bool

	Synthetic SyntheticConfig
}

// DefaultConfig returns the file names written by the data cleaning step.
func DefaultConfig() Config {
	return Config{
		Dir:               "data",
		Students:          "cleaned_students.csv",
		Internships:       "cleaned_internships.csv",
		Interactions:      "cleaned_interactions.csv",
		Outcomes:          "cleaned_outcomes.csv",
		SyntheticFallback: true,
		Synthetic:         DefaultSyntheticConfig(),
	}
}

// LoadStats reports what a load produced.
type LoadStats struct {
	Persons       int  `json:"persons"`
	Opportunities int  `json:"opportunities"`
	Events        int  `json:"events"`
	Labels        int  `json:"labels"`
	Skipped       int  `json:"skipped"`
	Synthetic     bool `json:"synthetic"`
}

// Loader reads a Snapshot from CSV files.
type Loader struct {
	cfg    Config
	logger zerolog.Logger
}

// NewLoader creates a loader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(cfg Config, logger zerolog.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logger.With().Str("component", "dataset").Logger()}
}

// Load reads every table. Persons, opportunities and outcomes are
// required; a missing or empty interactions table yields no events. When a
// required table is unavailable the loader returns a synthetic snapshot if
// SyntheticFallback is set, otherwise an error wrapping
// recommend.ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (*recommend.Snapshot, *LoadStats, error) {
	snap, stats, err := l.loadFiles(ctx)
	if err == nil {
		l.logger.Info().
			Int("persons", stats.Persons).
			Int("opportunities", stats.Opportunities).
			Int("events", stats.Events).
			Int("labels", stats.Labels).
			Int("skipped", stats.Skipped).
			Msg("dataset loaded")
		return snap, stats, nil
	}
	if !errors.Is(err, recommend.ErrDataUnavailable) || !l.cfg.SyntheticFallback {
		return nil, nil, err
	}

	l.logger.Warn().Err(err).Msg("input data unavailable, generating synthetic sample")
	snap = Synthetic(l.cfg.Synthetic)
	return snap, &LoadStats{
		Persons:       len(snap.Persons),
		Opportunities: len(snap.Opportunities),
		Events:        len(snap.Events),
		Labels:        len(snap.Labels),
		Synthetic:     true,
	}, nil
}

func (l *Loader) loadFiles(ctx context.Context) (*recommend.Snapshot, *LoadStats, error) {
	snap := &recommend.Snapshot{}
	stats := &LoadStats{}

	err := l.readTable(ctx, l.cfg.Students, stats, [][]string{{"student_id", "id"}}, func(h header, rec []string) bool {
		p := toPerson(h, rec)
		if p.ID == "" {
			return false
		}
		snap.Persons = append(snap.Persons, p)
		return true
	})
	if err != nil {
		return nil, nil, err
	}

	err = l.readTable(ctx, l.cfg.Internships, stats, [][]string{{"internship_id", "id"}}, func(h header, rec []string) bool {
		o := toOpportunity(h, rec)
		if o.ID == "" {
			return false
		}
		snap.Opportunities = append(snap.Opportunities, o)
		return true
	})
	if err != nil {
		return nil, nil, err
	}

	err = l.readTable(ctx, l.cfg.Outcomes, stats, [][]string{{"student_id"}, {"internship_id"}}, func(h header, rec []string) bool {
		lb := toLabel(h, rec)
		if lb.PersonID == "" || lb.OpportunityID == "" {
			return false
		}
		snap.Labels = append(snap.Labels, lb)
		return true
	})
	if err != nil {
		return nil, nil, err
	}

	err = l.readTable(ctx, l.cfg.Interactions, stats, [][]string{{"student_id"}, {"internship_id"}}, func(h header, rec []string) bool {
		ev := toEvent(h, rec)
		if ev.PersonID == "" || ev.OpportunityID == "" {
			return false
		}
		snap.Events = append(snap.Events, ev)
		return true
	})
	if errors.Is(err, recommend.ErrDataUnavailable) {
		l.logger.Warn().Err(err).Msg("no interaction events, collaborative signal will be empty")
	} else if err != nil {
		return nil, nil, err
	}

	stats.Persons = len(snap.Persons)
	stats.Opportunities = len(snap.Opportunities)
	stats.Events = len(snap.Events)
	stats.Labels = len(snap.Labels)
	return snap, stats, nil
}

// readTable streams one CSV file through fn. fn reports whether the row
// was kept. A missing file, a missing required column or zero kept rows
// is ErrDataUnavailable.
func (l *Loader) readTable(ctx context.Context, name string, stats *LoadStats, required [][]string, fn func(header, []string) bool) error {
	path := filepath.Join(l.cfg.Dir, name)
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s not found", recommend.ErrDataUnavailable, path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	cols, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s is empty", recommend.ErrDataUnavailable, path)
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w", path, err)
	}
	h := newHeader(cols)
	if err := h.require(name, required...); err != nil {
		return err
	}

	kept := 0
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Skipped++
			l.logger.Debug().Err(err).Str("file", name).Int("line", line).Msg("skipping malformed row")
			continue
		}
		if fn(h, rec) {
			kept++
		} else {
			stats.Skipped++
		}
	}
	if kept == 0 {
		return fmt.Errorf("%w: %s has no usable rows", recommend.ErrDataUnavailable, path)
	}
	return nil
}
