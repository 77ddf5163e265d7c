// Package pipeline orchestrates one check run: profile the batch, compare
// it against the stored baseline, run the detector family and assemble the
// report.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/detectors"
	"github.com/hed1ad/godriftml/pkg/profile"
	"github.com/hed1ad/godriftml/pkg/report"
)

// Runner wires the profiler, the profile store and the detector family
// into the profile -> detect -> record -> report pipeline. It owns the
// fitted-model cache. Safe for concurrent use across sources.
type Runner struct {
	profiler  *profile.Profiler
	store     *profile.Store
	detectors []detectors.Detector
	cfg       detectors.Config
	cache     *detectors.ModelCache
	logger    *zap.Logger
	metrics   *Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConfig overrides the default detection tunables.
func WithConfig(cfg detectors.Config) RunnerOption {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// WithDetectors replaces the default detector family.
func WithDetectors(ds ...detectors.Detector) RunnerOption {
	return func(r *Runner) {
		r.detectors = ds
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a Runner backed by the given profile store.
func NewRunner(store *profile.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		profiler: profile.NewProfiler(),
		store:    store,
		cfg:      detectors.DefaultConfig(),
		cache:    detectors.NewModelCache(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.detectors == nil {
		r.detectors = []detectors.Detector{
			&detectors.ThresholdDetector{},
			&detectors.NullSpikeDetector{},
			&detectors.SchemaDriftDetector{},
			&detectors.ShiftDetector{},
			detectors.NewDensityDetector(detectors.WithModelCache(r.cache)),
		}
	}
	return r
}

// Config returns the active detection tunables.
func (r *Runner) Config() detectors.Config {
	return r.cfg
}

// Check runs the full pipeline for one batch. The baseline history is
// snapshotted before the new profile is recorded, so detectors never
// compare the batch against itself. An empty batch fails with
// profile.ErrEmptyBatch and leaves the history untouched. Detectors that
// lack sufficient history are skipped, not failed.
func (r *Runner) Check(sourceID string, b *batch.Batch) (*report.Report, error) {
	start := time.Now()

	prof, err := r.profiler.Profile(b, sourceID)
	if err != nil {
		r.metrics.observeRun("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	hist := r.store.History(sourceID)

	var anomalies []detectors.Anomaly
	for _, d := range r.detectors {
		found, err := d.Detect(b, prof, hist, r.cfg)
		if err != nil {
			if errors.Is(err, detectors.ErrInsufficientHistory) {
				r.logger.Debug("detector skipped",
					zap.String("source_id", sourceID),
					zap.String("detector", d.Name()),
					zap.Int("history", len(hist)))
				continue
			}
			r.metrics.observeRun("error", time.Since(start).Seconds())
			return nil, fmt.Errorf("pipeline: detector %s: %w", d.Name(), err)
		}
		anomalies = append(anomalies, found...)
	}
	detectors.SortAnomalies(anomalies)

	r.store.Record(sourceID, prof)

	for _, a := range anomalies {
		r.metrics.observeAnomaly(string(a.Kind))
	}
	r.metrics.observeRun("ok", time.Since(start).Seconds())

	rep := report.Build(prof, anomalies)
	r.logger.Info("check complete",
		zap.String("source_id", sourceID),
		zap.Int("rows", prof.RowCount),
		zap.Int("anomalies", len(anomalies)),
		zap.Float64("quality_score", rep.QualityScore))

	return rep, nil
}

// ResetSource drops a source's stored history and invalidates its cached
// models.
func (r *Runner) ResetSource(sourceID string) {
	r.store.Reset(sourceID)
	r.cache.Invalidate(sourceID)
}
