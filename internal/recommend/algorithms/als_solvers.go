// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/internrank/internal/recommend"
)

// OptimizedSolver runs BLAS-backed per-row Cholesky solves in parallel.
type OptimizedSolver struct{}

// Name implements Solver.
func (*OptimizedSolver) Name() string { return string(recommend.SolverOptimized) }

// Factorize implements Solver.
func (s *OptimizedSolver) Factorize(ctx context.Context, m *InteractionMatrix, cfg recommend.ALSConfig) (*Factors, error) {
	k := cfg.Factors
	x, y := initFactors(m.Rows(), m.Cols(), k, cfg.Seed)
	if m.Rows() == 0 || m.Cols() == 0 {
		return &Factors{Persons: x, Opportunities: y}, nil
	}

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := s.sweep(ctx, x, y, m.ByPerson, cfg); err != nil {
			return nil, err
		}
		if err := s.sweep(ctx, y, x, m.ByOpportunity, cfg); err != nil {
			return nil, err
		}
	}
	return &Factors{Persons: x, Opportunities: y}, nil
}

// sweep recomputes every row of target holding fixed constant.
func (s *OptimizedSolver) sweep(ctx context.Context, target, fixed [][]float64, rows [][]Entry, cfg recommend.ALSConfig) error {
	k := cfg.Factors
	gram := gramMatrix(fixed, k)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	chunk := (len(target) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(target); start += chunk {
		end := min(start+chunk, len(target))
		g.Go(func() error {
			a := mat.NewSymDense(k, nil)
			b := mat.NewVecDense(k, nil)
			var chol mat.Cholesky
			for r := start; r < end; r++ {
				if ContextCancelled(gctx) {
					return gctx.Err()
				}
				solveRowOptimized(target, fixed, rows[r], r, gram, a, b, &chol, cfg)
			}
			return nil
		})
	}
	return g.Wait()
}

// gramMatrix computes F'F.
func gramMatrix(f [][]float64, k int) *mat.SymDense {
	dense := mat.NewDense(len(f), k, nil)
	for i, row := range f {
		dense.SetRow(i, row)
	}
	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, dense.T())
	return gram
}

// solveRowOptimized solves (F'F + F'(C-I)F + lambda*I) x = F'C p for one row.
// A row with no entries has a zero right-hand side and therefore a zero solution.
func solveRowOptimized(target, fixed [][]float64, entries []Entry, r int, gram *mat.SymDense, a *mat.SymDense, b *mat.VecDense, chol *mat.Cholesky, cfg recommend.ALSConfig) {
	k := cfg.Factors
	if len(entries) == 0 {
		clear(target[r])
		return
	}

	a.CopySym(gram)
	for f := 0; f < k; f++ {
		a.SetSym(f, f, a.At(f, f)+cfg.Regularization)
	}
	b.Zero()
	for _, e := range entries {
		conf := 1 + cfg.Alpha*e.Weight
		yv := mat.NewVecDense(k, fixed[e.Index])
		a.SymRankOne(a, conf-1, yv)
		b.AddScaledVec(b, conf, yv)
	}

	if ok := chol.Factorize(a); !ok {
		// Not positive definite: lift the diagonal and retry once.
		for f := 0; f < k; f++ {
			a.SetSym(f, f, a.At(f, f)+1e-6)
		}
		if ok := chol.Factorize(a); !ok {
			return
		}
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, b); err != nil {
		return
	}
	out := sol.RawVector().Data
	if !finite(out) {
		return
	}
	copy(target[r], out)
}

// ReferenceSolver is a plain sequential closed-form solver with no BLAS
// dependency. It is the fallback backend and the baseline in tests.
type ReferenceSolver struct{}

// Name implements Solver.
func (*ReferenceSolver) Name() string { return string(recommend.SolverReference) }

// Factorize implements Solver.
func (s *ReferenceSolver) Factorize(ctx context.Context, m *InteractionMatrix, cfg recommend.ALSConfig) (*Factors, error) {
	k := cfg.Factors
	x, y := initFactors(m.Rows(), m.Cols(), k, cfg.Seed)
	if m.Rows() == 0 || m.Cols() == 0 {
		return &Factors{Persons: x, Opportunities: y}, nil
	}

	for iter := 0; iter < cfg.Iterations; iter++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		referenceSweep(x, y, m.ByPerson, cfg)
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		referenceSweep(y, x, m.ByOpportunity, cfg)
	}
	return &Factors{Persons: x, Opportunities: y}, nil
}

//nolint:gocritic // YtY follows standard linear algebra notation
func referenceSweep(target, fixed [][]float64, rows [][]Entry, cfg recommend.ALSConfig) {
	k := cfg.Factors
	YtY := make([][]float64, k)
	for f := range YtY {
		YtY[f] = make([]float64, k)
	}
	for _, y := range fixed {
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				YtY[f1][f2] += y[f1] * y[f2]
			}
		}
	}
	for f1 := 0; f1 < k; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			YtY[f1][f2] = YtY[f2][f1]
		}
	}

	for r, entries := range rows {
		if len(entries) == 0 {
			clear(target[r])
			continue
		}

		// A = Y'Y + Y'(C-I)Y + lambda*I, b = Y'Cp
		A := make([][]float64, k)
		for f := range A {
			A[f] = make([]float64, k)
			copy(A[f], YtY[f])
			A[f][f] += cfg.Regularization
		}
		b := make([]float64, k)
		for _, e := range entries {
			y := fixed[e.Index]
			conf := 1 + cfg.Alpha*e.Weight
			cMinus1 := conf - 1
			for f1 := 0; f1 < k; f1++ {
				for f2 := f1; f2 < k; f2++ {
					delta := cMinus1 * y[f1] * y[f2]
					A[f1][f2] += delta
					if f1 != f2 {
						A[f2][f1] += delta
					}
				}
				b[f1] += conf * y[f1]
			}
		}

		if sol := solveLinearSystem(A, b); finite(sol) {
			target[r] = sol
		}
	}
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// L z = b
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// L' x = z
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}
