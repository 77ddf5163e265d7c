package detectors

import (
	"math"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// ThresholdDetector flags numeric values whose z-score against the current
// profile's mean and standard deviation exceeds the configured threshold.
// Columns with zero or undefined deviation are skipped: no z-score exists
// there, and no anomaly is raised.
type ThresholdDetector struct{}

// Name implements Detector.
func (d *ThresholdDetector) Name() string {
	return "threshold"
}

// Detect implements Detector. It is deterministic: identical inputs yield
// an identical ordered anomaly sequence.
func (d *ThresholdDetector) Detect(b *batch.Batch, prof *profile.Profile, _ []*profile.Profile, cfg Config) ([]Anomaly, error) {
	var anomalies []Anomaly

	for _, cp := range prof.Columns {
		if cp.Type != batch.TypeNumeric || cp.Mean == nil || cp.StdDev == nil {
			continue
		}
		std := *cp.StdDev
		if std == 0 {
			continue
		}
		mean := *cp.Mean

		col, ok := b.Column(cp.Name)
		if !ok {
			continue
		}
		for i, v := range col.Values {
			f, numeric := v.Float64()
			if !numeric {
				continue
			}
			z := (f - mean) / std
			if math.Abs(z) <= cfg.ZScoreThreshold {
				continue
			}
			anomalies = append(anomalies, Anomaly{
				SourceID: prof.SourceID,
				Column:   cp.Name,
				Kind:     KindOutlier,
				Severity: math.Min(1, math.Abs(z)/(3*cfg.ZScoreThreshold)),
				Evidence: map[string]any{
					"row":     i,
					"value":   f,
					"z_score": z,
					"mean":    mean,
					"stddev":  std,
				},
				Detector: d.Name(),
			})
		}
	}

	SortAnomalies(anomalies)
	return anomalies, nil
}
