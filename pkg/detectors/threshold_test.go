package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

func numericBatch(t *testing.T, name string, values ...float64) *batch.Batch {
	t.Helper()
	col := batch.Column{Name: name}
	for _, v := range values {
		col.Values = append(col.Values, batch.Float(v))
	}
	b, err := batch.New(col)
	require.NoError(t, err)
	return b
}

func profileOf(t *testing.T, b *batch.Batch, sourceID string) *profile.Profile {
	t.Helper()
	p, err := profile.NewProfiler().Profile(b, sourceID)
	require.NoError(t, err)
	return p
}

func TestThresholdFlagsSingleOutlier(t *testing.T) {
	b := numericBatch(t, "age", 20, 21, 19, 22, 95, 20, 21)
	prof := profileOf(t, b, "people")

	cfg := DefaultConfig()
	cfg.ZScoreThreshold = 2.0

	d := &ThresholdDetector{}
	anomalies, err := d.Detect(b, prof, nil, cfg)
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, KindOutlier, a.Kind)
	assert.Equal(t, "age", a.Column)
	assert.Equal(t, "people", a.SourceID)
	assert.Equal(t, "threshold", a.Detector)
	assert.Equal(t, 95.0, a.Evidence["value"])
	assert.Equal(t, 4, a.Evidence["row"])
	assert.Greater(t, a.Severity, 0.0)
	assert.LessOrEqual(t, a.Severity, 1.0)
}

func TestThresholdIdempotent(t *testing.T) {
	b := numericBatch(t, "v", 1, 2, 3, 2, 1, 3, 2, 50, 2, 1, -40)
	prof := profileOf(t, b, "src")
	cfg := DefaultConfig()
	cfg.ZScoreThreshold = 1.5

	d := &ThresholdDetector{}
	first, err := d.Detect(b, prof, nil, cfg)
	require.NoError(t, err)
	second, err := d.Detect(b, prof, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestThresholdSkipsZeroVariance(t *testing.T) {
	b := numericBatch(t, "flat", 5, 5, 5, 5)
	prof := profileOf(t, b, "src")

	anomalies, err := (&ThresholdDetector{}).Detect(b, prof, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestThresholdSkipsAllNullColumn(t *testing.T) {
	col := batch.Column{Name: "empty", Values: []batch.Value{batch.Null(), batch.Null(), batch.Null()}}
	b, err := batch.New(col)
	require.NoError(t, err)
	prof := profileOf(t, b, "src")

	anomalies, err := (&ThresholdDetector{}).Detect(b, prof, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestThresholdIgnoresNonNumericColumns(t *testing.T) {
	b, err := batch.New(batch.Column{Name: "label", Values: []batch.Value{
		batch.String("a"), batch.String("b"), batch.String("zzzzzz"),
	}})
	require.NoError(t, err)
	prof := profileOf(t, b, "src")

	anomalies, err := (&ThresholdDetector{}).Detect(b, prof, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestThresholdOrdering(t *testing.T) {
	// Two outliers: 100 deviates more than -60, so it must sort first.
	b := numericBatch(t, "v", 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 100, -60)
	prof := profileOf(t, b, "src")
	cfg := DefaultConfig()
	cfg.ZScoreThreshold = 1.2

	anomalies, err := (&ThresholdDetector{}).Detect(b, prof, nil, cfg)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(anomalies), 2)
	for i := 1; i < len(anomalies); i++ {
		assert.GreaterOrEqual(t, anomalies[i-1].Severity, anomalies[i].Severity)
	}
	assert.Equal(t, 100.0, anomalies[0].Evidence["value"])
}
