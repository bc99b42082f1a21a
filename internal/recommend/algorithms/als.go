// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/internrank/internal/recommend"
)

// initScale is the standard deviation of the initial factor entries.
const initScale = 0.01

// Factors holds fitted latent vectors, one row per person / opportunity.
type Factors struct {
	Persons       [][]float64
	Opportunities [][]float64
}

// Solver factorizes an interaction matrix with implicit-feedback ALS.
// Implementations must be deterministic for a fixed seed and return
// factors of shape (rows x Factors) and (cols x Factors). Values need not
// be bit-identical across implementations.
type Solver interface {
	Name() string
	Factorize(ctx context.Context, m *InteractionMatrix, cfg recommend.ALSConfig) (*Factors, error)
}

// NewSolver returns the solver named by cfg.Solver.
func NewSolver(cfg recommend.ALSConfig) (Solver, error) {
	switch cfg.Solver {
	case recommend.SolverOptimized, "":
		return &OptimizedSolver{}, nil
	case recommend.SolverReference:
		return &ReferenceSolver{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown ALS solver %q", recommend.ErrModelUnavailable, cfg.Solver)
	}
}

// ALS implements Alternating Least Squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets" (Hu, Koren, Volinsky, 2008)
//
// The objective minimized is:
//
//	sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 if person u interacted with opportunity i, 0 otherwise,
// and c_ui = 1 + alpha * r_ui is the confidence from summed event weights.
//
// Entities without interactions are cold: their pairs are absent from the
// score table and Score returns 0 for them.
type ALS struct {
	BaseAlgorithm
	config recommend.ALSConfig
	solver Solver

	factors *Factors
	matrix  *InteractionMatrix
}

// NewALS creates an ALS engine with the solver selected by cfg.
func NewALS(cfg recommend.ALSConfig) (*ALS, error) {
	if cfg.Factors <= 0 {
		cfg.Factors = 50
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 50
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = 0.01
	}
	if cfg.Alpha < 0 {
		cfg.Alpha = 1.0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	solver, err := NewSolver(cfg)
	if err != nil {
		return nil, err
	}
	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		config:        cfg,
		solver:        solver,
	}, nil
}

// SolverName returns the active backend name.
func (a *ALS) SolverName() string { return a.solver.Name() }

// Train factorizes m.
func (a *ALS) Train(ctx context.Context, m *InteractionMatrix) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}
	f, err := a.solver.Factorize(ctx, m, a.config)
	if err != nil {
		return err
	}
	a.factors = f
	a.matrix = m
	a.markTrained()
	return nil
}

// Score returns the raw factor dot product for (p, o), or 0 when either
// side is cold or the model is untrained. Never NaN.
func (a *ALS) Score(p, o int) float64 {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if a.factors == nil || p < 0 || o < 0 || p >= len(a.factors.Persons) || o >= len(a.factors.Opportunities) {
		return 0
	}
	if len(a.matrix.ByPerson[p]) == 0 || len(a.matrix.ByOpportunity[o]) == 0 {
		return 0
	}
	return recommend.FillNumber(dot(a.factors.Persons[p], a.factors.Opportunities[o]), 0)
}

// ScoreTable scores every opportunity for every person with at least one
// interaction and min-max normalizes the result to [0,1]. Opportunities
// without interactions enter the normalization with a raw score of 0. The
// returned flag reports a degenerate range.
func (a *ALS) ScoreTable(ctx context.Context) (*ScoreTable, bool, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if a.factors == nil {
		return nil, false, fmt.Errorf("%w: ALS not trained", recommend.ErrModelUnavailable)
	}
	m := a.matrix
	t := NewScoreTable(m.PersonIDs, m.OpportunityIDs)
	if m.Rows() == 0 || m.Cols() == 0 {
		return t, false, nil
	}

	active := make([]int, 0, m.Stats.ActivePersons)
	for p, row := range m.ByPerson {
		if len(row) > 0 {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return t, false, nil
	}

	k := a.config.Factors
	x := mat.NewDense(len(active), k, nil)
	for i, p := range active {
		x.SetRow(i, a.factors.Persons[p])
	}
	y := mat.NewDense(m.Cols(), k, nil)
	for o, v := range a.factors.Opportunities {
		y.SetRow(o, v)
	}
	if ContextCancelled(ctx) {
		return nil, false, ctx.Err()
	}

	var prod mat.Dense
	prod.Mul(x, y.T())
	for i, p := range active {
		for o := 0; o < m.Cols(); o++ {
			// Cold opportunities score a raw 0, as in Score.
			raw := 0.0
			if len(m.ByOpportunity[o]) > 0 {
				raw = recommend.FillNumber(prod.At(i, o), 0)
			}
			t.Set(p, o, raw)
		}
	}
	deg := normalizeScores(t.values, t.present)
	return t, deg, nil
}

// LoadFactors installs previously fitted factors for m instead of training.
// The factor shapes must match m and the configured rank.
func (a *ALS) LoadFactors(m *InteractionMatrix, f *Factors) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if f == nil || len(f.Persons) != m.Rows() || len(f.Opportunities) != m.Cols() {
		return fmt.Errorf("%w: factor shape does not match matrix", recommend.ErrModelUnavailable)
	}
	for _, rows := range [][][]float64{f.Persons, f.Opportunities} {
		for _, v := range rows {
			if len(v) != a.config.Factors || !finite(v) {
				return fmt.Errorf("%w: factor rank or values invalid", recommend.ErrModelUnavailable)
			}
		}
	}
	a.factors = f
	a.matrix = m
	a.markTrained()
	return nil
}

// GetFactors returns the fitted factors. Callers must not mutate them.
func (a *ALS) GetFactors() *Factors {
	a.acquirePredictLock()
	defer a.releasePredictLock()
	return a.factors
}

// initFactors draws N(0, initScale^2) entries from a PCG seeded by seed so
// both solvers start from the same point.
func initFactors(rows, cols, k int, seed int64) (x, y [][]float64) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	fill := func(n int) [][]float64 {
		out := make([][]float64, n)
		for i := range out {
			out[i] = make([]float64, k)
			for f := range out[i] {
				out[i][f] = rng.NormFloat64() * initScale
			}
		}
		return out
	}
	x = fill(rows)
	y = fill(cols)
	return x, y
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// finite reports whether every entry of v is finite.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Ensure interface compliance.
var (
	_ Solver = (*OptimizedSolver)(nil)
	_ Solver = (*ReferenceSolver)(nil)
)
