package detectors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

// emailBatch builds a 100-row batch whose email column carries the given
// number of nulls.
func emailBatch(t *testing.T, nulls int) *batch.Batch {
	t.Helper()
	col := batch.Column{Name: "email"}
	for i := 0; i < 100; i++ {
		if i < nulls {
			col.Values = append(col.Values, batch.Null())
		} else {
			col.Values = append(col.Values, batch.String(fmt.Sprintf("u%d@example.com", i)))
		}
	}
	b, err := batch.New(col)
	require.NoError(t, err)
	return b
}

func TestNullSpikeDetected(t *testing.T) {
	first := profileOf(t, emailBatch(t, 0), "orders")
	currentBatch := emailBatch(t, 40)
	current := profileOf(t, currentBatch, "orders")

	cfg := DefaultConfig()
	cfg.NullRateThreshold = 0.2

	d := &NullSpikeDetector{}
	anomalies, err := d.Detect(currentBatch, current, []*profile.Profile{first}, cfg)
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, KindNullSpike, a.Kind)
	assert.Equal(t, "email", a.Column)
	assert.Equal(t, "orders", a.SourceID)
	// increase 0.4 over threshold 0.2 clamps to full severity.
	assert.Equal(t, 1.0, a.Severity)
	assert.InDelta(t, 0.4, a.Evidence["increase"].(float64), 1e-9)
}

func TestNullSpikeNoHistory(t *testing.T) {
	b := emailBatch(t, 40)
	prof := profileOf(t, b, "orders")

	anomalies, err := (&NullSpikeDetector{}).Detect(b, prof, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestNullSpikeBelowThreshold(t *testing.T) {
	first := profileOf(t, emailBatch(t, 0), "orders")
	b := emailBatch(t, 15)
	current := profileOf(t, b, "orders")

	anomalies, err := (&NullSpikeDetector{}).Detect(b, current, []*profile.Profile{first}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestNullSpikeComparesAgainstMostRecentEntry(t *testing.T) {
	// The middle entry already had the elevated rate, so the latest
	// comparison sees no increase.
	clean := profileOf(t, emailBatch(t, 0), "orders")
	elevated := profileOf(t, emailBatch(t, 40), "orders")
	b := emailBatch(t, 40)
	current := profileOf(t, b, "orders")

	anomalies, err := (&NullSpikeDetector{}).Detect(b, current, []*profile.Profile{clean, elevated}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestNullSpikeIgnoresNewColumns(t *testing.T) {
	// A column absent from the baseline has no rate to compare against;
	// schema drift owns that case.
	first := profileOf(t, emailBatch(t, 0), "orders")

	b, err := batch.New(
		batch.Column{Name: "phone", Values: []batch.Value{batch.Null(), batch.Null()}},
	)
	require.NoError(t, err)
	current := profileOf(t, b, "orders")

	anomalies, err := (&NullSpikeDetector{}).Detect(b, current, []*profile.Profile{first}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}
