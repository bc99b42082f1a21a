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

	"gonum.org/v1/gonum/optimize"

	"github.com/tomtom215/internrank/internal/recommend"
)

// plattModel maps a decision value to a probability: 1 / (1 + exp(A*f + B)).
type plattModel struct {
	A, B float64
}

func (p plattModel) prob(f float64) float64 {
	return sigmoid(-(p.A*f + p.B))
}

// fitPlatt fits a sigmoid on held-out decision values using Platt's
// smoothed targets (N+ + 1)/(N+ + 2) and 1/(N- + 2).
func fitPlatt(f []float64, y []int) (plattModel, error) {
	var pos, neg float64
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	hi := (pos + 1) / (pos + 2)
	lo := 1 / (neg + 2)
	t := make([]float64, len(y))
	for i, v := range y {
		if v == 1 {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	loss := func(x []float64) float64 {
		var s float64
		for i, fi := range f {
			z := -(x[0]*fi + x[1])
			// softplus(z) - t*z
			if z > 0 {
				s += z + math.Log1p(math.Exp(-z)) - t[i]*z
			} else {
				s += math.Log1p(math.Exp(z)) - t[i]*z
			}
		}
		return s
	}
	grad := func(g, x []float64) {
		g[0], g[1] = 0, 0
		for i, fi := range f {
			r := sigmoid(-(x[0]*fi + x[1])) - t[i]
			g[0] -= r * fi
			g[1] -= r
		}
	}

	init := []float64{0, math.Log((neg + 1) / (pos + 1))}
	res, err := optimize.Minimize(optimize.Problem{Func: loss, Grad: grad}, init,
		&optimize.Settings{GradientThreshold: 1e-8, MajorIterations: 200}, &optimize.LBFGS{})
	if res == nil || !finite(res.X) {
		return plattModel{}, fmt.Errorf("%w: sigmoid calibration failed: %v", recommend.ErrModelUnavailable, err)
	}
	return plattModel{A: res.X[0], B: res.X[1]}, nil
}

// calibratedFold is one classifier trained on k-1 folds and the sigmoid
// fit on its held-out fold.
type calibratedFold struct {
	clf   *LogisticRegression
	platt plattModel
}

// SuccessCalibrator predicts the probability of selection for a pair.
//
// Training protocol:
//
//  1. Stratified train/test split (TestFraction, seeded).
//  2. Preprocessor fit on the training split.
//  3. Stratified k-fold Platt scaling: for each fold a class-balanced L2
//     logistic regression is fit on the other folds and a sigmoid is fit on
//     its decision values for the held-out fold.
//  4. Prediction averages the k calibrated probabilities.
//  5. The test split is scored for diagnostics only.
type SuccessCalibrator struct {
	BaseAlgorithm
	cfg recommend.CalibrationConfig

	pre     *Preprocessor
	folds   []calibratedFold
	metrics EvalMetrics
}

// NewSuccessCalibrator creates an untrained calibrator.
func NewSuccessCalibrator(cfg recommend.CalibrationConfig) *SuccessCalibrator {
	if cfg.Folds < 2 {
		cfg.Folds = 3
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.C <= 0 {
		cfg.C = 1
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 1000
	}
	return &SuccessCalibrator{
		BaseAlgorithm: NewBaseAlgorithm("calibrator"),
		cfg:           cfg,
	}
}

// Fit trains on rows with binary labels. A single class, or fewer samples
// of either class than folds in the training split, fails with
// recommend.ErrModelUnavailable.
func (c *SuccessCalibrator) Fit(ctx context.Context, rows []FeatureRow, labels []int) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if len(rows) != len(labels) {
		return fmt.Errorf("%w: %d feature rows but %d labels", recommend.ErrModelUnavailable, len(rows), len(labels))
	}
	rng := rand.New(rand.NewPCG(uint64(c.cfg.Seed), uint64(c.cfg.Seed)+1))

	trainIdx, testIdx := StratifiedSplit(labels, c.cfg.TestFraction, rng)
	trainY := pick(labels, trainIdx)
	if err := checkClasses(trainY, c.cfg.Folds); err != nil {
		return err
	}

	trainRows := make([]FeatureRow, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = rows[idx]
	}
	pre := FitPreprocessor(trainRows)
	trainX := pre.TransformAll(trainRows)

	foldOf := StratifiedFolds(trainY, c.cfg.Folds, rng)
	folds := make([]calibratedFold, 0, c.cfg.Folds)
	for k := 0; k < c.cfg.Folds; k++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		var fitX, holdX [][]float64
		var fitY, holdY []int
		for i, f := range foldOf {
			if f == k {
				holdX = append(holdX, trainX[i])
				holdY = append(holdY, trainY[i])
			} else {
				fitX = append(fitX, trainX[i])
				fitY = append(fitY, trainY[i])
			}
		}

		clf := &LogisticRegression{C: c.cfg.C, MaxIterations: c.cfg.MaxIterations}
		if err := clf.Fit(fitX, fitY, BalancedWeights(fitY)); err != nil {
			return err
		}
		decisions := make([]float64, len(holdX))
		for i, x := range holdX {
			decisions[i] = clf.Decision(x)
		}
		platt, err := fitPlatt(decisions, holdY)
		if err != nil {
			return err
		}
		folds = append(folds, calibratedFold{clf: clf, platt: platt})
	}

	c.pre = pre
	c.folds = folds

	testY := pick(labels, testIdx)
	probs := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		probs[i] = c.predictEncoded(pre.Transform(rows[idx]))
	}
	c.metrics = Evaluate(testY, probs)
	c.metrics.TrainSamples = len(trainIdx)

	c.markTrained()
	return nil
}

// Predict returns the calibrated probability for one row, in [0,1].
func (c *SuccessCalibrator) Predict(row FeatureRow) (float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	if c.pre == nil {
		return 0, fmt.Errorf("%w: calibrator not trained", recommend.ErrModelUnavailable)
	}
	return c.predictEncoded(c.pre.Transform(row)), nil
}

func (c *SuccessCalibrator) predictEncoded(x []float64) float64 {
	var sum float64
	for _, f := range c.folds {
		sum += f.platt.prob(f.clf.Decision(x))
	}
	return recommend.FillScore(sum / float64(len(c.folds)))
}

// Metrics returns the held-out evaluation from the last Fit.
func (c *SuccessCalibrator) Metrics() EvalMetrics {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return c.metrics
}

func checkClasses(y []int, folds int) error {
	var pos int
	for _, v := range y {
		pos += v
	}
	neg := len(y) - pos
	if pos == 0 || neg == 0 {
		return fmt.Errorf("%w: training labels contain a single class (%d positive, %d negative)",
			recommend.ErrModelUnavailable, pos, neg)
	}
	if pos < folds || neg < folds {
		return fmt.Errorf("%w: need at least %d samples per class, got %d positive and %d negative",
			recommend.ErrModelUnavailable, folds, pos, neg)
	}
	return nil
}

// StratifiedSplit shuffles each class with rng and holds out
// round(fraction * n_class) of it (at most n_class - 1).
func StratifiedSplit(y []int, fraction float64, rng *rand.Rand) (train, test []int) {
	for _, cls := range [...]int{0, 1} {
		var idx []int
		for i, v := range y {
			if v == cls {
				idx = append(idx, i)
			}
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(fraction * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		if nTest < 0 {
			nTest = 0
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	return train, test
}

// StratifiedFolds assigns each sample a fold in [0,k) so that every class
// is spread round-robin across folds after a seeded shuffle.
func StratifiedFolds(y []int, k int, rng *rand.Rand) []int {
	fold := make([]int, len(y))
	for _, cls := range [...]int{0, 1} {
		var idx []int
		for i, v := range y {
			if v == cls {
				idx = append(idx, i)
			}
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for n, i := range idx {
			fold[i] = n % k
		}
	}
	return fold
}

func pick(y, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
