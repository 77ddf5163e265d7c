package detectors

import (
	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// NullSpikeDetector compares each column's null rate against the same
// column's rate in the most recent baseline profile and flags jumps above
// the configured threshold. Without history it has no baseline and emits
// nothing.
type NullSpikeDetector struct{}

// Name implements Detector.
func (d *NullSpikeDetector) Name() string {
	return "null_spike"
}

// Detect implements Detector.
func (d *NullSpikeDetector) Detect(_ *batch.Batch, prof *profile.Profile, hist []*profile.Profile, cfg Config) ([]Anomaly, error) {
	prev := latest(hist)
	if prev == nil {
		return nil, nil
	}

	var anomalies []Anomaly
	for _, cp := range prof.Columns {
		base, ok := prev.Column(cp.Name)
		if !ok {
			continue
		}
		increase := cp.NullRate() - base.NullRate()
		if increase <= cfg.NullRateThreshold {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			SourceID: prof.SourceID,
			Column:   cp.Name,
			Kind:     KindNullSpike,
			Severity: clamp(increase / (2 * cfg.NullRateThreshold)),
			Evidence: map[string]any{
				"null_rate":          cp.NullRate(),
				"baseline_null_rate": base.NullRate(),
				"increase":           increase,
			},
			Detector: d.Name(),
		})
	}

	SortAnomalies(anomalies)
	return anomalies, nil
}
