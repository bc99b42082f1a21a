// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/tomtom215/internrank/internal/recommend"
)

// LogisticRegression is an L2-regularized binary linear classifier fit with
// L-BFGS. The intercept is not penalized. The objective is
//
//	0.5 * ||w||^2 + C * sum_i s_i * logloss(y_i, w'x_i + b)
//
// with per-sample weights s_i.
type LogisticRegression struct {
	C             float64
	MaxIterations int

	Coef      []float64
	Intercept float64
}

// BalancedWeights returns n / (2 * n_c) for each sample's class.
func BalancedWeights(y []int) []float64 {
	var pos int
	for _, v := range y {
		pos += v
	}
	neg := len(y) - pos
	w := make([]float64, len(y))
	for i, v := range y {
		switch {
		case v == 1 && pos > 0:
			w[i] = float64(len(y)) / (2 * float64(pos))
		case v == 0 && neg > 0:
			w[i] = float64(len(y)) / (2 * float64(neg))
		}
	}
	return w
}

// Fit trains on X (rows of equal width), labels y in {0,1} and sample weights.
func (m *LogisticRegression) Fit(x [][]float64, y []int, weights []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: logistic regression needs at least one sample", recommend.ErrModelUnavailable)
	}
	d := len(x[0])
	c := m.C
	if c <= 0 {
		c = 1
	}

	loss := func(theta []float64) float64 {
		w, b := theta[:d], theta[d]
		f := 0.5 * dot(w, w)
		for i, row := range x {
			z := dot(w, row) + b
			f += c * weights[i] * logLoss(y[i], z)
		}
		return f
	}
	grad := func(g, theta []float64) {
		w, b := theta[:d], theta[d]
		copy(g[:d], w)
		g[d] = 0
		for i, row := range x {
			z := dot(w, row) + b
			r := c * weights[i] * (sigmoid(z) - float64(y[i]))
			for j, v := range row {
				g[j] += r * v
			}
			g[d] += r
		}
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   m.MaxIterations,
	}
	init := make([]float64, d+1)
	res, err := optimize.Minimize(optimize.Problem{Func: loss, Grad: grad}, init, settings, &optimize.LBFGS{})
	if res == nil || !finite(res.X) {
		return fmt.Errorf("%w: logistic regression did not converge: %v", recommend.ErrModelUnavailable, err)
	}
	m.Coef = append([]float64(nil), res.X[:d]...)
	m.Intercept = res.X[d]
	return nil
}

// Decision returns the raw linear score w'x + b.
func (m *LogisticRegression) Decision(x []float64) float64 {
	return dot(m.Coef, x) + m.Intercept
}

// Prob returns the uncalibrated probability.
func (m *LogisticRegression) Prob(x []float64) float64 {
	return sigmoid(m.Decision(x))
}

// sigmoid is the numerically stable logistic function.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logLoss is -[y log s(z) + (1-y) log(1-s(z))] computed without overflow.
func logLoss(y int, z float64) float64 {
	// log(1+exp(z)) - y*z
	var softplus float64
	if z > 0 {
		softplus = z + math.Log1p(math.Exp(-z))
	} else {
		softplus = math.Log1p(math.Exp(z))
	}
	return softplus - float64(y)*z
}
