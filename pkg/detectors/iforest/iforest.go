// Package iforest implements the Isolation Forest algorithm used by the
// density detector to score rows of a numeric batch sub-matrix.
package iforest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// ErrNotFitted is returned when scoring is attempted before Fit.
var ErrNotFitted = errors.New("iforest: model not fitted")

// ErrNoSamples is returned when Fit receives an empty matrix.
var ErrNoSamples = errors.New("iforest: no training samples")

// ErrFeatureMismatch is returned when a row's width differs from the
// feature count the model was fitted on.
var ErrFeatureMismatch = errors.New("iforest: feature count mismatch")

// IsolationForest isolates anomalous rows with an ensemble of randomly
// split trees: rows that isolate in few splits score high. Scores lie in
// (0, 1); the fitted threshold is the (1 - contamination) percentile of
// the training scores.
type IsolationForest struct {
	mu sync.RWMutex

	trees         int
	sampleSize    int
	contamination float64
	threshold     float64
	maxDepth      int
	features      int
	rng           *rand.Rand

	ensemble []*tree
	fitted   bool

	// Normalization constant c(n) for the fitted sample size.
	avgPath float64
}

// tree is one isolation tree.
type tree struct {
	Root *node
}

// node is either an internal split (Left/Right set) or a leaf (Size set).
type node struct {
	Feature float64 // split feature index; float for gob stability
	Split   float64
	Left    *node
	Right   *node
	Size    int
}

// Option configures an IsolationForest.
type Option func(*IsolationForest)

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(f *IsolationForest) {
		f.trees = n
	}
}

// WithSampleSize sets the per-tree subsample size.
func WithSampleSize(n int) Option {
	return func(f *IsolationForest) {
		f.sampleSize = n
	}
}

// WithContamination sets the expected anomaly fraction, which positions
// the fitted threshold.
func WithContamination(c float64) Option {
	return func(f *IsolationForest) {
		f.contamination = c
	}
}

// WithSeed fixes the random source for reproducible fits.
func WithSeed(seed int64) Option {
	return func(f *IsolationForest) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates an IsolationForest with the given options.
func New(opts ...Option) *IsolationForest {
	f := &IsolationForest{
		trees:         100,
		sampleSize:    256,
		contamination: 0.1,
		threshold:     0.5,
		rng:           rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.maxDepth = int(math.Ceil(math.Log2(float64(f.sampleSize))))
	return f
}

// Fit trains the ensemble on the matrix (rows are samples, columns are
// features) and positions the threshold from the contamination fraction.
func (f *IsolationForest) Fit(matrix [][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(matrix) == 0 {
		return ErrNoSamples
	}

	samples := len(matrix)
	features := len(matrix[0])
	f.features = features
	size := f.sampleSize
	if size > samples {
		size = samples
	}

	f.ensemble = make([]*tree, f.trees)
	for i := range f.ensemble {
		idx := f.rng.Perm(samples)[:size]
		sub := make([][]float64, size)
		for j, k := range idx {
			sub[j] = matrix[k]
		}
		f.ensemble[i] = &tree{Root: f.grow(sub, features, 0)}
	}

	f.avgPath = harmonicPath(float64(size))
	f.fitted = true

	if f.contamination > 0 {
		scores := f.scoreAll(matrix)
		f.threshold = percentile(scores, 1-f.contamination)
	}
	return nil
}

// grow recursively builds one isolation subtree.
func (f *IsolationForest) grow(matrix [][]float64, features, depth int) *node {
	n := len(matrix)
	if depth >= f.maxDepth || n <= 1 {
		return &node{Size: n}
	}

	feature := f.rng.Intn(features)
	lo, hi := matrix[0][feature], matrix[0][feature]
	for _, row := range matrix[1:] {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	if lo == hi {
		return &node{Size: n}
	}

	split := lo + f.rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range matrix {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &node{
		Feature: float64(feature),
		Split:   split,
		Left:    f.grow(left, features, depth+1),
		Right:   f.grow(right, features, depth+1),
	}
}

// Predict returns the anomaly score for every row.
func (f *IsolationForest) Predict(matrix [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.fitted {
		return nil, ErrNotFitted
	}
	for _, row := range matrix {
		if len(row) != f.features {
			return nil, fmt.Errorf("%w: row has %d features, model fitted on %d",
				ErrFeatureMismatch, len(row), f.features)
		}
	}
	return f.scoreAll(matrix), nil
}

// PredictOne returns the anomaly score for a single row.
func (f *IsolationForest) PredictOne(row []float64) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.fitted {
		return 0, ErrNotFitted
	}
	if len(row) != f.features {
		return 0, fmt.Errorf("%w: row has %d features, model fitted on %d",
			ErrFeatureMismatch, len(row), f.features)
	}
	return f.score(row), nil
}

func (f *IsolationForest) scoreAll(matrix [][]float64) []float64 {
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		scores[i] = f.score(row)
	}
	return scores
}

// score computes s(x) = 2^(-E[h(x)] / c(n)).
func (f *IsolationForest) score(row []float64) float64 {
	var total float64
	for _, t := range f.ensemble {
		total += pathLength(row, t.Root, 0)
	}
	avg := total / float64(len(f.ensemble))
	return math.Pow(2, -avg/f.avgPath)
}

// pathLength walks a row down a tree; leaves add the expected remaining
// isolation depth for their sample count.
func pathLength(row []float64, n *node, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		return float64(depth) + harmonicPath(float64(n.Size))
	}
	if row[int(n.Feature)] < n.Split {
		return pathLength(row, n.Left, depth+1)
	}
	return pathLength(row, n.Right, depth+1)
}

// harmonicPath is c(n), the average unsuccessful-search path length of a
// binary search tree over n items.
func harmonicPath(n float64) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}

// Threshold returns the fitted anomaly threshold.
func (f *IsolationForest) Threshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

// SetThreshold overrides the fitted threshold.
func (f *IsolationForest) SetThreshold(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = t
}

// Save serializes the fitted model.
func (f *IsolationForest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.fitted {
		return nil, ErrNotFitted
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range []any{f.trees, f.sampleSize, f.contamination, f.threshold, f.features, f.avgPath, f.ensemble} {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Load restores a model serialized by Save.
func (f *IsolationForest) Load(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewReader(data))
	for _, v := range []any{&f.trees, &f.sampleSize, &f.contamination, &f.threshold, &f.features, &f.avgPath, &f.ensemble} {
		if err := dec.Decode(v); err != nil {
			return err
		}
	}
	f.maxDepth = int(math.Ceil(math.Log2(float64(f.sampleSize))))
	f.fitted = true
	return nil
}

// percentile returns the q-th (0..1) percentile of the scores.
func percentile(scores []float64, q float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)-1) * q)
	return sorted[idx]
}
