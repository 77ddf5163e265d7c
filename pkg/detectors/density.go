package detectors

import (
	"fmt"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/detectors/iforest"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// Floors below which isolation-based scoring is statistically meaningless.
// Under either floor the detector returns no anomalies rather than failing.
const (
	minDensityRows    = 10
	minDensityColumns = 2
)

// densitySeed fixes the forest's randomness so repeated runs over the same
// batch score identically.
const densitySeed = 42

// DensityDetector scores whole rows with an isolation forest fitted on the
// batch's numeric sub-matrix. Rows carrying a null or non-numeric cell in
// any selected column are excluded from scoring but remain in the batch.
// Flagged rows are batch-level outliers: no column name is set.
type DensityDetector struct {
	cache *ModelCache
}

// DensityOption configures a DensityDetector.
type DensityOption func(*DensityDetector)

// WithModelCache reuses fitted forests across runs, keyed by source id
// plus a fingerprint of the config and the fitted feature columns.
func WithModelCache(cache *ModelCache) DensityOption {
	return func(d *DensityDetector) {
		d.cache = cache
	}
}

// NewDensityDetector creates a DensityDetector.
func NewDensityDetector(opts ...DensityOption) *DensityDetector {
	d := &DensityDetector{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Detector.
func (d *DensityDetector) Name() string {
	return "density"
}

// Detect implements Detector.
func (d *DensityDetector) Detect(b *batch.Batch, prof *profile.Profile, _ []*profile.Profile, cfg Config) ([]Anomaly, error) {
	matrix, rowIndex, features := numericSubmatrix(b, prof)
	if len(rowIndex) < minDensityRows || len(features) < minDensityColumns {
		return nil, nil
	}

	forest, err := d.forest(prof.SourceID, cfg, features, matrix)
	if err != nil {
		return nil, fmt.Errorf("density: %w", err)
	}

	scores, err := forest.Predict(matrix)
	if err != nil {
		return nil, fmt.Errorf("density: %w", err)
	}

	var anomalies []Anomaly
	threshold := forest.Threshold()
	for i, score := range scores {
		if score <= threshold {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			SourceID: prof.SourceID,
			Kind:     KindOutlier,
			Severity: clamp(score),
			Evidence: map[string]any{
				"row":       rowIndex[i],
				"score":     score,
				"threshold": threshold,
			},
			Detector: d.Name(),
		})
	}

	SortAnomalies(anomalies)
	return anomalies, nil
}

// forest returns a fitted isolation forest for the batch, consulting the
// cache when one is attached. Cache lookups include the feature columns,
// so a batch whose numeric column set changed always fits fresh.
func (d *DensityDetector) forest(sourceID string, cfg Config, features []string, matrix [][]float64) (*iforest.IsolationForest, error) {
	if d.cache != nil {
		if f, ok := d.cache.Get(sourceID, cfg, features); ok {
			return f, nil
		}
	}

	f := iforest.New(
		iforest.WithContamination(cfg.IsolationContamination),
		iforest.WithSeed(densitySeed),
	)
	if err := f.Fit(matrix); err != nil {
		return nil, err
	}

	if d.cache != nil {
		d.cache.Put(sourceID, cfg, features, f)
	}
	return f, nil
}

// numericSubmatrix extracts the numeric-typed columns (per the profile)
// into a dense row-major matrix, keeping only rows where every selected
// column holds a number. rowIndex maps matrix rows back to batch rows;
// features lists the selected column names in matrix order.
func numericSubmatrix(b *batch.Batch, prof *profile.Profile) (matrix [][]float64, rowIndex []int, features []string) {
	var cols []batch.Column
	for _, cp := range prof.Columns {
		if cp.Type != batch.TypeNumeric {
			continue
		}
		if col, ok := b.Column(cp.Name); ok {
			cols = append(cols, col)
			features = append(features, col.Name)
		}
	}
	if len(cols) == 0 {
		return nil, nil, nil
	}

	for row := 0; row < b.Rows(); row++ {
		vec := make([]float64, len(cols))
		complete := true
		for j, col := range cols {
			f, ok := col.Values[row].Float64()
			if !ok {
				complete = false
				break
			}
			vec[j] = f
		}
		if complete {
			matrix = append(matrix, vec)
			rowIndex = append(rowIndex, row)
		}
	}
	return matrix, rowIndex, features
}
