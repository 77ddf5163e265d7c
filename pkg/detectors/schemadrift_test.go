package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/profile"
)

func twoColumnBatch(t *testing.T) *batch.Batch {
	t.Helper()
	b, err := batch.New(
		batch.Column{Name: "id", Values: []batch.Value{batch.Int(1), batch.Int(2)}},
		batch.Column{Name: "name", Values: []batch.Value{batch.String("a"), batch.String("b")}},
	)
	require.NoError(t, err)
	return b
}

func TestSchemaDriftColumnRemoved(t *testing.T) {
	baseline := profileOf(t, twoColumnBatch(t), "src")

	b, err := batch.New(
		batch.Column{Name: "id", Values: []batch.Value{batch.Int(3), batch.Int(4)}},
	)
	require.NoError(t, err)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, []*profile.Profile{baseline}, DefaultConfig())
	require.NoError(t, err)

	// Exactly one anomaly, always maximal severity.
	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, KindSchemaDrift, a.Kind)
	assert.Equal(t, "name", a.Column)
	assert.Equal(t, 1.0, a.Severity)
	assert.Equal(t, "column_removed", a.Evidence["change"])
}

func TestSchemaDriftIdenticalSchemas(t *testing.T) {
	baseline := profileOf(t, twoColumnBatch(t), "src")
	b := twoColumnBatch(t)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, []*profile.Profile{baseline}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestSchemaDriftColumnAdded(t *testing.T) {
	baseline := profileOf(t, twoColumnBatch(t), "src")

	b, err := batch.New(
		batch.Column{Name: "id", Values: []batch.Value{batch.Int(1)}},
		batch.Column{Name: "name", Values: []batch.Value{batch.String("a")}},
		batch.Column{Name: "extra", Values: []batch.Value{batch.Bool(true)}},
	)
	require.NoError(t, err)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, []*profile.Profile{baseline}, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	assert.Equal(t, "extra", anomalies[0].Column)
	assert.Equal(t, "column_added", anomalies[0].Evidence["change"])
}

func TestSchemaDriftTypeChanged(t *testing.T) {
	baseline := profileOf(t, twoColumnBatch(t), "src")

	b, err := batch.New(
		batch.Column{Name: "id", Values: []batch.Value{batch.String("one"), batch.String("two")}},
		batch.Column{Name: "name", Values: []batch.Value{batch.String("a"), batch.String("b")}},
	)
	require.NoError(t, err)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, []*profile.Profile{baseline}, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, "id", a.Column)
	assert.Equal(t, "type_changed", a.Evidence["change"])
	assert.Equal(t, string(batch.TypeNumeric), a.Evidence["baseline_type"])
	assert.Equal(t, string(batch.TypeString), a.Evidence["type"])
}

func TestSchemaDriftNoHistory(t *testing.T) {
	b := twoColumnBatch(t)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestSchemaDriftMultipleChangesSortByColumn(t *testing.T) {
	baseline := profileOf(t, twoColumnBatch(t), "src")

	b, err := batch.New(
		batch.Column{Name: "added_a", Values: []batch.Value{batch.Int(1)}},
		batch.Column{Name: "added_b", Values: []batch.Value{batch.Int(2)}},
	)
	require.NoError(t, err)
	current := profileOf(t, b, "src")

	anomalies, err := (&SchemaDriftDetector{}).Detect(b, current, []*profile.Profile{baseline}, DefaultConfig())
	require.NoError(t, err)

	// Equal severities fall back to column-name order.
	require.Len(t, anomalies, 4)
	assert.Equal(t, "added_a", anomalies[0].Column)
	assert.Equal(t, "added_b", anomalies[1].Column)
	assert.Equal(t, "id", anomalies[2].Column)
	assert.Equal(t, "name", anomalies[3].Column)
}
