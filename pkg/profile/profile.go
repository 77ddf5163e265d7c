// Package profile computes per-column statistical summaries of tabular
// batches and tracks per-source profile history.
package profile

import (
	"errors"
	"time"

	"github.com/hed1ad/godriftml/pkg/batch"
)

// ErrEmptyBatch is returned when a batch has zero rows or zero columns.
// No partial profile is produced.
var ErrEmptyBatch = errors.New("profile: empty batch")

// Profile is the statistical summary of one batch from one source.
// Immutable once produced.
type Profile struct {
	SourceID  string          `json:"source_id"`
	Timestamp time.Time       `json:"timestamp"`
	RowCount  int             `json:"row_count"`
	Columns   []ColumnProfile `json:"columns"`
}

// Column returns the profile of the named column. The second return is
// false when the column is absent.
func (p *Profile) Column(name string) (ColumnProfile, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Profiler summarizes batches. It holds no state and is safe for
// concurrent use.
type Profiler struct {
	now func() time.Time
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a Profiler.
func NewProfiler(opts ...Option) *Profiler {
	p := &Profiler{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile summarizes every column of the batch. Column order in the result
// matches batch column order exactly. No anomaly logic runs here.
func (p *Profiler) Profile(b *batch.Batch, sourceID string) (*Profile, error) {
	if b.Empty() {
		return nil, ErrEmptyBatch
	}

	cols := make([]ColumnProfile, 0, len(b.Columns()))
	for _, c := range b.Columns() {
		cols = append(cols, ProfileColumn(c))
	}

	return &Profile{
		SourceID:  sourceID,
		Timestamp: p.now(),
		RowCount:  b.Rows(),
		Columns:   cols,
	}, nil
}
