// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/internrank/internal/cache"
	"github.com/tomtom215/internrank/internal/metrics"
	"github.com/tomtom215/internrank/internal/recommend"
	"github.com/tomtom215/internrank/internal/recommend/algorithms"
	"github.com/tomtom215/internrank/internal/recommend/reranking"
	"github.com/tomtom215/internrank/internal/recommend/storage"
)

// factorModelName is the storage name for persisted ALS factors.
const factorModelName = "als"

// keepFactorVersions is how many persisted factor versions survive a prune.
const keepFactorVersions = 3

// Service is one fitted pipeline over one immutable snapshot. All methods
// are safe for concurrent use; nothing fitted is mutated after New returns.
type Service struct {
	cfg      *recommend.Config
	snap     *recommend.Snapshot
	logger   zerolog.Logger
	reranker *reranking.FairReranker
	cache    *cache.SlateCache
	store    *storage.Store

	fingerprint uint64
	configHash  uint64

	personIdx map[string]int

	// pairs holds every scored pair; byPerson[p] lists indices into pairs
	// for person row p, in opportunity order.
	pairs    []recommend.PairScore
	byPerson [][]int
	oppRow   []int

	diag Diagnostics

	lastAudit atomic.Pointer[reranking.Audit]

	requests  atomic.Int64
	cacheHits atomic.Int64
	fallbacks atomic.Int64
	failures  atomic.Int64
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithCache enables slate caching through c.
func WithCache(c *cache.SlateCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithModelStore persists ALS factors in st and reuses them when the
// snapshot and ALS settings are unchanged.
func WithModelStore(st *storage.Store) Option {
	return func(s *Service) { s.store = st }
}

// New validates cfg, copies snap and runs every scoring stage. It fails
// with recommend.ErrModelUnavailable when the factorization or calibration
// stage cannot produce a model; no partially fitted Service is returned.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(ctx context.Context, snap *recommend.Snapshot, cfg *recommend.Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", recommend.ErrDataUnavailable)
	}

	s := &Service{
		cfg:    cfg.Clone(),
		snap:   snap.Clone(),
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fingerprint = s.snap.Fingerprint()
	s.configHash = hashConfig(s.cfg)

	start := time.Now()
	err := s.build(ctx)
	metrics.RecordBuild(err)
	if err != nil {
		s.logger.Error().Err(err).Msg("pipeline build failed")
		return nil, err
	}
	s.diag.BuiltAt = time.Now()
	s.diag.BuildSeconds = time.Since(start).Seconds()

	s.logger.Info().
		Int("persons", len(s.snap.Persons)).
		Int("opportunities", len(s.snap.Opportunities)).
		Int("pairs", len(s.pairs)).
		Str("fingerprint", fmt.Sprintf("%016x", s.fingerprint)).
		Float64("duration_s", s.diag.BuildSeconds).
		Msg("pipeline built")
	return s, nil
}

// hashConfig digests the full configuration so cached slates from a
// different configuration never match.
func hashConfig(cfg *recommend.Config) uint64 {
	data, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

func (s *Service) build(ctx context.Context) error {
	snap := s.snap
	metrics.UpdateSnapshotRows(len(snap.Persons), len(snap.Opportunities), len(snap.Events), len(snap.Labels))
	s.diag.Fingerprint = fmt.Sprintf("%016x", s.fingerprint)
	s.diag.Persons = len(snap.Persons)
	s.diag.Opportunities = len(snap.Opportunities)
	s.diag.Events = len(snap.Events)
	s.diag.Labels = len(snap.Labels)
	s.diag.Stages = make(map[string]float64, 6)

	reranker, err := reranking.NewFairReranker(s.cfg.Fairness, s.logger)
	if err != nil {
		return err
	}
	s.reranker = reranker

	s.personIdx = snap.PersonIndex()
	personIDs := make([]string, len(snap.Persons))
	for i := range snap.Persons {
		personIDs[i] = snap.Persons[i].ID
	}
	oppIDs := make([]string, len(snap.Opportunities))
	for i := range snap.Opportunities {
		oppIDs[i] = snap.Opportunities[i].ID
	}

	var content *algorithms.ContentResult
	if err := s.stage(ctx, "content", func() error {
		content, err = algorithms.NewContentScorer(s.cfg.Content, s.cfg.Vectorizer).Score(ctx, snap.Persons, snap.Opportunities)
		return err
	}); err != nil {
		return fmt.Errorf("content stage: %w", err)
	}
	s.diag.Vocabulary = content.Vocabulary
	s.diag.DegenerateCosine = content.DegenerateCosine
	s.diag.DegenerateMetadata = content.DegenerateMetadata
	s.noteDegenerate("cosine", content.DegenerateCosine)
	s.noteDegenerate("metadata", content.DegenerateMetadata)

	var matrix *algorithms.InteractionMatrix
	if err := s.stage(ctx, "matrix", func() error {
		matrix = algorithms.BuildInteractionMatrix(snap.Events, personIDs, oppIDs)
		return nil
	}); err != nil {
		return err
	}
	s.diag.Matrix = matrix.Stats
	if matrix.Stats.Dropped > 0 {
		metrics.DroppedEvents.Add(float64(matrix.Stats.Dropped))
		s.logger.Info().Int("dropped", matrix.Stats.Dropped).Msg("interaction events with unknown ids dropped")
	}

	var cf *algorithms.ScoreTable
	if err := s.stage(ctx, "als", func() error {
		var deg bool
		cf, deg, err = s.factorize(ctx, matrix)
		s.diag.DegenerateCF = deg
		return err
	}); err != nil {
		return fmt.Errorf("%w: collaborative stage: %w", recommend.ErrModelUnavailable, err)
	}
	s.noteDegenerate("cf", s.diag.DegenerateCF)

	var blended *algorithms.BlendResult
	if err := s.stage(ctx, "blend", func() error {
		blender, err := algorithms.NewHybridBlender(s.cfg.Weights)
		if err != nil {
			return err
		}
		blended, err = blender.Blend(content.Scores, cf)
		return err
	}); err != nil {
		return fmt.Errorf("blend stage: %w", err)
	}
	s.pairs = blended.Pairs
	s.diag.Blend = BlendStats{
		Both:              blended.Both,
		ContentOnly:       blended.ContentOnly,
		CFOnly:            blended.CFOnly,
		DegenerateContent: blended.DegenerateContent,
		DegenerateCF:      blended.DegenerateCF,
	}

	oppIdx := snap.OpportunityIndex()
	calibrator := algorithms.NewSuccessCalibrator(s.cfg.Calibration)
	if err := s.stage(ctx, "calibrate", func() error {
		rows, labels, matched := s.trainingRows(oppIdx)
		s.diag.TrainingRows = len(rows)
		s.diag.LabelledPairs = matched
		return calibrator.Fit(ctx, rows, labels)
	}); err != nil {
		return fmt.Errorf("calibration stage: %w", err)
	}
	s.diag.Calibrator = calibrator.Metrics()
	metrics.CalibratorROCAUC.Set(s.diag.Calibrator.ROCAUC)

	if err := s.stage(ctx, "predict", func() error {
		return s.predict(ctx, calibrator, oppIdx)
	}); err != nil {
		return fmt.Errorf("predict stage: %w", err)
	}
	return nil
}

// stage runs fn, recording its duration. Cancellation is checked first.
func (s *Service) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStage(name, d)
	s.diag.Stages[name] = d.Seconds()
	s.logger.Debug().Str("stage", name).Dur("duration", d).Err(err).Msg("stage finished")
	return err
}

func (s *Service) noteDegenerate(column string, degenerate bool) {
	if !degenerate {
		return
	}
	metrics.DegenerateNormalizations.WithLabelValues(column).Inc()
	s.logger.Warn().Str("column", column).Msg("score column has no variance, using neutral 0.5")
}

// factorize loads matching persisted factors or trains ALS, then scores.
func (s *Service) factorize(ctx context.Context, m *algorithms.InteractionMatrix) (*algorithms.ScoreTable, bool, error) {
	als, err := algorithms.NewALS(s.cfg.ALS)
	if err != nil {
		return nil, false, err
	}
	s.diag.Solver = als.SolverName()

	if !s.loadFactors(ctx, als, m) {
		trainStart := time.Now()
		if err := als.Train(ctx, m); err != nil {
			return nil, false, err
		}
		s.saveFactors(ctx, als, m, time.Since(trainStart))
	}
	return als.ScoreTable(ctx)
}

func (s *Service) loadFactors(ctx context.Context, als *algorithms.ALS, m *algorithms.InteractionMatrix) bool {
	if s.store == nil {
		return false
	}
	version, ok := s.store.LatestVersion(factorModelName)
	if !ok {
		return false
	}
	state, meta, err := s.store.Load(ctx, factorModelName, version)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Int("version", version).Msg("could not read stored factors")
		}
		return false
	}
	if !meta.Matches(s.fingerprint, storage.ConfigHash(s.cfg.ALS)) {
		return false
	}
	f, err := state.Factors(m)
	if err == nil {
		err = als.LoadFactors(m, f)
	}
	if err != nil {
		s.logger.Warn().Err(err).Int("version", meta.Version).Msg("stored factors rejected")
		return false
	}
	s.diag.FactorsLoaded = true
	s.logger.Info().Int("version", meta.Version).Msg("reusing stored ALS factors")
	return true
}

func (s *Service) saveFactors(ctx context.Context, als *algorithms.ALS, m *algorithms.InteractionMatrix, took time.Duration) {
	if s.store == nil {
		return
	}
	meta, err := s.store.Save(ctx, factorModelName, storage.NewFactorState(m, als.GetFactors()), storage.ModelMetadata{
		SnapshotFingerprint: s.fingerprint,
		ConfigHash:          storage.ConfigHash(s.cfg.ALS),
		Solver:              als.SolverName(),
		TrainedAt:           time.Now(),
		Persons:             m.Rows(),
		Opportunities:       m.Cols(),
		Interactions:        m.Stats.NonZero,
		TrainingDurationMS:  took.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not persist ALS factors")
		return
	}
	if _, err := s.store.Prune(ctx, factorModelName, keepFactorVersions); err != nil {
		s.logger.Warn().Err(err).Msg("could not prune old ALS factors")
	}
	s.logger.Debug().Int("version", meta.Version).Int64("size_bytes", meta.SizeBytes).Msg("ALS factors persisted")
}

// trainingRows left-joins outcome labels onto every blended pair. A pair
// without a label trains once as a failure; a pair labelled more than once
// contributes one row per label. The count returned is the number of pairs
// that matched at least one label. Labels naming no blended pair are skipped.
func (s *Service) trainingRows(oppIdx map[string]int) ([]algorithms.FeatureRow, []int, int) {
	known := make(map[recommend.PairKey][]int, len(s.snap.Labels))
	for _, l := range s.snap.Labels {
		k := recommend.PairKey{PersonID: l.PersonID, OpportunityID: l.OpportunityID}
		known[k] = append(known[k], l.Success())
	}

	rows := make([]algorithms.FeatureRow, 0, len(s.pairs))
	labels := make([]int, 0, len(s.pairs))
	matched := 0
	for i := range s.pairs {
		ps := &s.pairs[i]
		p, pok := s.personIdx[ps.PersonID]
		o, ook := oppIdx[ps.OpportunityID]
		if !pok || !ook {
			continue
		}
		row := algorithms.BuildFeatureRow(ps, &s.snap.Persons[p], &s.snap.Opportunities[o])
		got, ok := known[recommend.PairKey{PersonID: ps.PersonID, OpportunityID: ps.OpportunityID}]
		if !ok {
			rows = append(rows, row)
			labels = append(labels, 0)
			continue
		}
		matched++
		for _, y := range got {
			rows = append(rows, row)
			labels = append(labels, y)
		}
	}
	if skipped := len(known) - matched; skipped > 0 {
		s.logger.Info().Int("skipped", skipped).Msg("outcome labels naming no scored pair skipped")
	}
	return rows, labels, matched
}

// predict fills SuccessProb for every pair and indexes pairs by person.
// Persons are scored concurrently; each goroutine writes only its own pairs.
func (s *Service) predict(ctx context.Context, cal *algorithms.SuccessCalibrator, oppIdx map[string]int) error {
	s.byPerson = make([][]int, len(s.snap.Persons))
	s.oppRow = make([]int, len(s.pairs))
	for i := range s.pairs {
		p, pok := s.personIdx[s.pairs[i].PersonID]
		o, ook := oppIdx[s.pairs[i].OpportunityID]
		if !pok || !ook {
			s.oppRow[i] = -1
			continue
		}
		s.oppRow[i] = o
		s.byPerson[p] = append(s.byPerson[p], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Limits.RankWorkers))
	for p, idxs := range s.byPerson {
		if len(idxs) == 0 {
			continue
		}
		person := &s.snap.Persons[p]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, i := range idxs {
				row := algorithms.BuildFeatureRow(&s.pairs[i], person, &s.snap.Opportunities[s.oppRow[i]])
				prob, err := cal.Predict(row)
				if err != nil {
					return err
				}
				s.pairs[i].SuccessProb = recommend.Clamp01(recommend.FillScore(prob))
			}
			return nil
		})
	}
	return g.Wait()
}

// Config returns a copy of the configuration the service was built with.
func (s *Service) Config() *recommend.Config { return s.cfg.Clone() }

// PersistsFactors reports whether ALS factors are saved between builds.
func (s *Service) PersistsFactors() bool { return s.store != nil }

// StoredModels lists the persisted ALS factor versions, oldest first. It
// returns nil when factor persistence is off.
func (s *Service) StoredModels(ctx context.Context) ([]storage.ModelMetadata, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

// Fingerprint returns the snapshot fingerprint.
func (s *Service) Fingerprint() uint64 { return s.fingerprint }

// HasPerson reports whether id is in the snapshot.
func (s *Service) HasPerson(id string) bool {
	_, ok := s.personIdx[id]
	return ok
}

// PersonIDs returns every person id in snapshot order.
func (s *Service) PersonIDs() []string {
	ids := make([]string, len(s.snap.Persons))
	for i := range s.snap.Persons {
		ids[i] = s.snap.Persons[i].ID
	}
	return ids
}

// PairScores returns a copy of the scored pairs for one person.
func (s *Service) PairScores(personID string) ([]recommend.PairScore, error) {
	p, ok := s.personIdx[personID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", recommend.ErrUnknownPerson, personID)
	}
	out := make([]recommend.PairScore, len(s.byPerson[p]))
	for j, i := range s.byPerson[p] {
		out[j] = s.pairs[i]
	}
	return out, nil
}
