// Package detectors provides the anomaly-detection strategies run against
// profiled batches: statistical thresholding, null-rate spikes, schema
// drift, distribution shift and isolation-forest density scoring.
package detectors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// Kind is the anomaly classification. The set is fixed; severities are
// floats in [0, 1].
type Kind string

const (
	KindOutlier           Kind = "OUTLIER"
	KindNullSpike         Kind = "NULL_SPIKE"
	KindDistributionShift Kind = "DISTRIBUTION_SHIFT"
	KindSchemaDrift       Kind = "SCHEMA_DRIFT"
)

// Anomaly is one flagged observation. Column is empty for batch-level
// anomalies. Immutable once produced.
type Anomaly struct {
	SourceID string         `json:"source_id"`
	Column   string         `json:"column,omitempty"`
	Kind     Kind           `json:"kind"`
	Severity float64        `json:"severity"`
	Evidence map[string]any `json:"evidence,omitempty"`
	Detector string         `json:"detector"`
}

// Config holds the recognized detection tunables. Unknown options are the
// caller's concern; the engine only reads these fields.
type Config struct {
	// ZScoreThreshold flags numeric values beyond this many standard
	// deviations.
	ZScoreThreshold float64 `json:"z_score_threshold" yaml:"z_score_threshold"`
	// NullRateThreshold flags columns whose null fraction rises above
	// this versus the baseline.
	NullRateThreshold float64 `json:"null_rate_threshold" yaml:"null_rate_threshold"`
	// IsolationContamination is the expected anomaly fraction fed to the
	// density detector.
	IsolationContamination float64 `json:"isolation_contamination" yaml:"isolation_contamination"`
	// MinHistoryForDrift is the minimum stored profiles before
	// distribution-shift detection activates.
	MinHistoryForDrift int `json:"min_history_for_drift" yaml:"min_history_for_drift"`
}

// DefaultConfig returns the default detection tunables.
func DefaultConfig() Config {
	return Config{
		ZScoreThreshold:        3.0,
		NullRateThreshold:      0.2,
		IsolationContamination: 0.1,
		MinHistoryForDrift:     3,
	}
}

// ErrInsufficientHistory is returned by detectors that explicitly require
// stored history when it is shorter than the configured minimum. The
// orchestrated pipeline never surfaces it; it skips the detector instead.
var ErrInsufficientHistory = errors.New("detectors: insufficient history")

// Detector is the common contract of the detection family. Detect reads
// the batch, its profile and the stored baseline history (oldest first)
// and returns anomalies ordered by descending severity, ties broken by
// column name then detector name. Detectors never mutate their inputs.
type Detector interface {
	// Name identifies the detector in anomaly records.
	Name() string

	// Detect runs the strategy over one batch.
	Detect(b *batch.Batch, prof *profile.Profile, hist []*profile.Profile, cfg Config) ([]Anomaly, error)
}

// DetectorKind names a variant of the closed detector family.
type DetectorKind string

const (
	KindThreshold    DetectorKind = "threshold"
	KindNullRate     DetectorKind = "null_spike"
	KindSchemaChange DetectorKind = "schema_drift"
	KindShift        DetectorKind = "shift"
	KindDensity      DetectorKind = "density"
)

// New constructs a detector by kind. The variant set is closed; adding a
// strategy means adding a kind here.
func New(kind DetectorKind) (Detector, error) {
	switch kind {
	case KindThreshold:
		return &ThresholdDetector{}, nil
	case KindNullRate:
		return &NullSpikeDetector{}, nil
	case KindSchemaChange:
		return &SchemaDriftDetector{}, nil
	case KindShift:
		return &ShiftDetector{}, nil
	case KindDensity:
		return NewDensityDetector(), nil
	default:
		return nil, fmt.Errorf("detectors: unknown detector kind %q", kind)
	}
}

// All returns one instance of every detector variant, in family order.
func All() []Detector {
	return []Detector{
		&ThresholdDetector{},
		&NullSpikeDetector{},
		&SchemaDriftDetector{},
		&ShiftDetector{},
		NewDensityDetector(),
	}
}

// SortAnomalies orders anomalies by descending severity, then column name,
// then detector name. Every detector applies it before returning so
// reports are reproducible regardless of execution order.
func SortAnomalies(anomalies []Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].Severity != anomalies[j].Severity {
			return anomalies[i].Severity > anomalies[j].Severity
		}
		if anomalies[i].Column != anomalies[j].Column {
			return anomalies[i].Column < anomalies[j].Column
		}
		return anomalies[i].Detector < anomalies[j].Detector
	})
}

// latest returns the most recent history entry, or nil.
func latest(hist []*profile.Profile) *profile.Profile {
	if len(hist) == 0 {
		return nil
	}
	return hist[len(hist)-1]
}

// clamp limits v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
