package detectors

import (
	"fmt"
	"math"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// shiftMultiple is the relative-change multiple that triggers a
// distribution-shift anomaly: |mean_now - mean_hist| / stddev_hist must
// exceed it.
const shiftMultiple = 2.0

// ShiftDetector compares each numeric column's current mean against the
// mean of the last MinHistoryForDrift baseline profiles. It is the one
// detector that requires history: invoked standalone with too little, it
// fails with ErrInsufficientHistory; the orchestrated pipeline gates on
// history length and skips it instead.
type ShiftDetector struct{}

// Name implements Detector.
func (d *ShiftDetector) Name() string {
	return "shift"
}

// Detect implements Detector.
func (d *ShiftDetector) Detect(_ *batch.Batch, prof *profile.Profile, hist []*profile.Profile, cfg Config) ([]Anomaly, error) {
	if len(hist) < cfg.MinHistoryForDrift {
		return nil, fmt.Errorf("%w: have %d profiles, need %d",
			ErrInsufficientHistory, len(hist), cfg.MinHistoryForDrift)
	}
	window := hist[len(hist)-cfg.MinHistoryForDrift:]

	var anomalies []Anomaly
	for _, cp := range prof.Columns {
		if cp.Type != batch.TypeNumeric || cp.Mean == nil {
			continue
		}
		baseMean, baseStd, ok := baselineStats(window, cp.Name)
		if !ok || baseStd == 0 {
			continue
		}
		shift := math.Abs(*cp.Mean-baseMean) / baseStd
		if shift <= shiftMultiple {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			SourceID: prof.SourceID,
			Column:   cp.Name,
			Kind:     KindDistributionShift,
			Severity: clamp(shift / (2 * shiftMultiple)),
			Evidence: map[string]any{
				"mean":            *cp.Mean,
				"baseline_mean":   baseMean,
				"baseline_stddev": baseStd,
				"shift":           shift,
			},
			Detector: d.Name(),
		})
	}

	SortAnomalies(anomalies)
	return anomalies, nil
}

// baselineStats averages the column's mean and stddev across the history
// window. Entries where the column is missing or undefined are skipped;
// ok is false when none contribute.
func baselineStats(window []*profile.Profile, column string) (mean, std float64, ok bool) {
	var n float64
	for _, p := range window {
		cp, found := p.Column(column)
		if !found || cp.Mean == nil || cp.StdDev == nil {
			continue
		}
		mean += *cp.Mean
		std += *cp.StdDev
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return mean / n, std / n, true
}
