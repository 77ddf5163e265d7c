// Package report assembles profiles and anomalies into the structured
// result returned to the reporting layer.
package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hed1ad/godriftml/pkg/detectors"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// Report is the stable output contract of one check run. Anomalies keep
// the ordering produced by the detectors.
type Report struct {
	ID           string                 `json:"id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Profile      *profile.Profile       `json:"profile"`
	Anomalies    []detectors.Anomaly    `json:"anomalies"`
	Summary      map[detectors.Kind]int `json:"summary"`
	QualityScore float64                `json:"quality_score"`
}

// Build aggregates a profile and its anomalies. The quality score is
// 1 - min(1, sum(severity) / max(1, row_count)); with no anomalies it is
// exactly 1.0. Pure aggregation, no side effects.
func Build(prof *profile.Profile, anomalies []detectors.Anomaly) *Report {
	summary := make(map[detectors.Kind]int)
	var severity float64
	for _, a := range anomalies {
		summary[a.Kind]++
		severity += a.Severity
	}

	rows := prof.RowCount
	if rows < 1 {
		rows = 1
	}

	return &Report{
		ID:           uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Profile:      prof,
		Anomalies:    anomalies,
		Summary:      summary,
		QualityScore: 1 - math.Min(1, severity/float64(rows)),
	}
}
