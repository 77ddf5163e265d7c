package detectors

import (
	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// SchemaDriftDetector compares the current profile's column names and
// inferred types against the most recent baseline profile. Added columns,
// removed columns and type changes are always maximal severity; a schema
// change is never partial.
type SchemaDriftDetector struct{}

// Name implements Detector.
func (d *SchemaDriftDetector) Name() string {
	return "schema_drift"
}

// Detect implements Detector.
func (d *SchemaDriftDetector) Detect(_ *batch.Batch, prof *profile.Profile, hist []*profile.Profile, cfg Config) ([]Anomaly, error) {
	prev := latest(hist)
	if prev == nil {
		return nil, nil
	}

	current := make(map[string]batch.ColumnType, len(prof.Columns))
	for _, cp := range prof.Columns {
		current[cp.Name] = cp.Type
	}
	baseline := make(map[string]batch.ColumnType, len(prev.Columns))
	for _, cp := range prev.Columns {
		baseline[cp.Name] = cp.Type
	}

	var anomalies []Anomaly
	emit := func(column, change string, evidence map[string]any) {
		evidence["change"] = change
		anomalies = append(anomalies, Anomaly{
			SourceID: prof.SourceID,
			Column:   column,
			Kind:     KindSchemaDrift,
			Severity: 1.0,
			Evidence: evidence,
			Detector: d.Name(),
		})
	}

	for _, cp := range prof.Columns {
		prevType, ok := baseline[cp.Name]
		if !ok {
			emit(cp.Name, "column_added", map[string]any{"type": string(cp.Type)})
			continue
		}
		if prevType != cp.Type {
			emit(cp.Name, "type_changed", map[string]any{
				"type":          string(cp.Type),
				"baseline_type": string(prevType),
			})
		}
	}
	for _, cp := range prev.Columns {
		if _, ok := current[cp.Name]; !ok {
			emit(cp.Name, "column_removed", map[string]any{"baseline_type": string(cp.Type)})
		}
	}

	SortAnomalies(anomalies)
	return anomalies, nil
}
