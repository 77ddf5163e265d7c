package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/godriftml/pkg/detectors"
	"github.com/hed1ad/godriftml/pkg/profile"
)

func TestBuildNoAnomaliesPerfectScore(t *testing.T) {
	prof := &profile.Profile{SourceID: "src", RowCount: 100}

	rep := Build(prof, nil)

	assert.Equal(t, 1.0, rep.QualityScore)
	assert.Empty(t, rep.Anomalies)
	assert.Empty(t, rep.Summary)
	assert.NotEmpty(t, rep.ID)
	assert.Same(t, prof, rep.Profile)
}

func TestBuildSeverityWeightedScore(t *testing.T) {
	prof := &profile.Profile{SourceID: "src", RowCount: 10}
	anomalies := []detectors.Anomaly{
		{Kind: detectors.KindOutlier, Severity: 1.0},
		{Kind: detectors.KindOutlier, Severity: 0.5},
		{Kind: detectors.KindNullSpike, Severity: 0.5},
	}

	rep := Build(prof, anomalies)

	// 1 - (2.0 / 10)
	assert.InDelta(t, 0.8, rep.QualityScore, 1e-9)
	assert.Equal(t, 2, rep.Summary[detectors.KindOutlier])
	assert.Equal(t, 1, rep.Summary[detectors.KindNullSpike])
}

func TestBuildScoreFloorsAtZero(t *testing.T) {
	prof := &profile.Profile{SourceID: "src", RowCount: 2}
	anomalies := []detectors.Anomaly{
		{Kind: detectors.KindSchemaDrift, Severity: 1.0},
		{Kind: detectors.KindSchemaDrift, Severity: 1.0},
		{Kind: detectors.KindSchemaDrift, Severity: 1.0},
	}

	rep := Build(prof, anomalies)
	assert.Equal(t, 0.0, rep.QualityScore)
}

func TestBuildPreservesAnomalyOrder(t *testing.T) {
	prof := &profile.Profile{SourceID: "src", RowCount: 5}
	anomalies := []detectors.Anomaly{
		{Kind: detectors.KindSchemaDrift, Column: "a", Severity: 1.0},
		{Kind: detectors.KindOutlier, Column: "b", Severity: 0.4},
		{Kind: detectors.KindNullSpike, Column: "c", Severity: 0.2},
	}

	rep := Build(prof, anomalies)
	require.Len(t, rep.Anomalies, 3)
	assert.Equal(t, "a", rep.Anomalies[0].Column)
	assert.Equal(t, "b", rep.Anomalies[1].Column)
	assert.Equal(t, "c", rep.Anomalies[2].Column)
}

func TestReportSerializes(t *testing.T) {
	prof := &profile.Profile{SourceID: "src", RowCount: 3}
	rep := Build(prof, []detectors.Anomaly{
		{SourceID: "src", Column: "v", Kind: detectors.KindOutlier, Severity: 0.5, Detector: "threshold"},
	})

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "quality_score")
	assert.Contains(t, decoded, "anomalies")
	assert.Contains(t, decoded, "profile")
}
