// Package ml implements the wait-time regression model: a one-hot feature
// encoder feeding a bagged forest of CART regression trees. Everything in
// this package is pure computation; persistence and scheduling live with the
// callers. Models marshal to JSON so a trained forest can be stored and
// reloaded across restarts.
package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// ErrInsufficientData is returned when training is requested with no samples
// or with fewer than two distinct label values.
var ErrInsufficientData = errors.New("insufficient training data")

// Config controls forest training. Zero values fall back to defaults.
type Config struct {
	Trees           int
	MaxDepth        int
	MinLeafSize     int
	Seed            int64
	HoldoutFraction float64
}

func (c Config) withDefaults() Config {
	if c.Trees <= 0 {
		c.Trees = 100
	}
	if c.MinLeafSize <= 0 {
		c.MinLeafSize = 1
	}
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		c.HoldoutFraction = 0.2
	}
	return c
}

// Importance pairs a feature name with its normalized contribution.
type Importance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// Model is a trained forest together with its encoder and holdout metrics.
type Model struct {
	Encoder     Encoder          `json:"encoder"`
	Trees       []regressionTree `json:"trees"`
	Importances []Importance     `json:"importances"`
	TrainedAt   time.Time        `json:"trained_at"`
	Examples    int              `json:"examples"`
	MAE         float64          `json:"mae"`
	RMSE        float64          `json:"rmse"`
}

// Train fits a forest on the given samples. The seed fixes the shuffle, the
// train/holdout split and every bootstrap draw, so identical inputs always
// produce an identical model. The encoder vocabulary is learned from the
// training split only; holdout rows with unseen categories encode to zero
// blocks, same as at inference time.
func Train(cfg Config, samples []Sample, labels []float64) (*Model, error) {
	cfg = cfg.withDefaults()

	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, ErrInsufficientData
	}
	if distinctValues(labels) < 2 {
		return nil, ErrInsufficientData
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	order := rng.Perm(len(samples))
	nTest := int(math.Ceil(float64(len(samples)) * cfg.HoldoutFraction))
	if nTest >= len(samples) {
		nTest = len(samples) - 1
	}
	trainIdx := order[:len(samples)-nTest]
	testIdx := order[len(samples)-nTest:]

	trainSamples := make([]Sample, len(trainIdx))
	for i, j := range trainIdx {
		trainSamples[i] = samples[j]
	}
	enc := FitEncoder(trainSamples)

	features := make([][]float64, len(trainIdx))
	trainLabels := make([]float64, len(trainIdx))
	for i, j := range trainIdx {
		features[i] = enc.Encode(samples[j])
		trainLabels[i] = labels[j]
	}

	params := treeParams{maxDepth: cfg.MaxDepth, minLeafSize: cfg.MinLeafSize}
	totalImp := make([]float64, enc.Width())
	trees := make([]regressionTree, 0, cfg.Trees)

	for t := 0; t < cfg.Trees; t++ {
		bootstrap := make([]int, len(features))
		for i := range bootstrap {
			bootstrap[i] = rng.Intn(len(features))
		}
		imp := make([]float64, enc.Width())
		trees = append(trees, buildTree(features, trainLabels, bootstrap, params, imp))
		accumulateNormalized(totalImp, imp)
	}

	m := &Model{
		Encoder:     enc,
		Trees:       trees,
		Importances: rankImportances(enc.FeatureNames(), totalImp),
		Examples:    len(samples),
	}
	m.MAE, m.RMSE = holdoutMetrics(m, samples, labels, testIdx)
	return m, nil
}

// Predict returns the forest mean for a single sample.
func (m *Model) Predict(s Sample) float64 {
	out, _ := m.PredictVector(m.Encoder.Encode(s))
	return out
}

// PredictVector predicts from an already-encoded vector. The vector length
// must match the encoder width.
func (m *Model) PredictVector(vec []float64) (float64, error) {
	if len(vec) != m.Encoder.Width() {
		return 0, fmt.Errorf("feature vector has %d values, want %d", len(vec), m.Encoder.Width())
	}
	if len(m.Trees) == 0 {
		return 0, errors.New("model has no trees")
	}
	sum := 0.0
	for i := range m.Trees {
		sum += m.Trees[i].predict(vec)
	}
	pred := sum / float64(len(m.Trees))
	if pred < 0 {
		pred = 0
	}
	return pred, nil
}

// accumulateNormalized adds the per-tree importances into total after scaling
// them to sum 1, so every tree contributes equal weight.
func accumulateNormalized(total, imp []float64) {
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for i, v := range imp {
		total[i] += v / sum
	}
}

func rankImportances(names []string, weights []float64) []Importance {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	out := make([]Importance, len(names))
	for i, name := range names {
		w := 0.0
		if sum > 0 {
			w = weights[i] / sum
		}
		out[i] = Importance{Feature: name, Weight: w}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Weight > out[b].Weight })
	return out
}

func holdoutMetrics(m *Model, samples []Sample, labels []float64, testIdx []int) (float64, float64) {
	if len(testIdx) == 0 {
		return 0, 0
	}
	var absSum, sqSum float64
	for _, j := range testIdx {
		diff := m.Predict(samples[j]) - labels[j]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}
	n := float64(len(testIdx))
	return absSum / n, math.Sqrt(sqSum / n)
}

func distinctValues(labels []float64) int {
	seen := make(map[float64]struct{}, len(labels))
	for _, v := range labels {
		seen[v] = struct{}{}
	}
	return len(seen)
}
