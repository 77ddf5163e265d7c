package detectors

import (
	"fmt"
	"hash/fnv"
	"io"
	"sync"

	"github.com/hed1ad/godriftml/pkg/detectors/iforest"
)

// ModelCache keeps fitted isolation forests across detection runs. It is
// an explicit object owned by the host process: entries are keyed by
// source id plus a fingerprint of the detection config and the ordered
// feature columns the forest was fitted on, so a schema change never
// replays a stale model. Invalidation is explicit (call Invalidate when a
// source's history resets).
type ModelCache struct {
	mu     sync.RWMutex
	models map[modelKey]*iforest.IsolationForest
}

// modelKey identifies one fitted model. The source id is kept verbatim so
// invalidation matches sources exactly, never by prefix.
type modelKey struct {
	source      string
	fingerprint uint64
}

// NewModelCache creates an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{models: make(map[modelKey]*iforest.IsolationForest)}
}

// Get returns the forest fitted for the source under the given config and
// feature columns, if any.
func (c *ModelCache) Get(sourceID string, cfg Config, features []string) (*iforest.IsolationForest, bool) {
	key := modelKey{source: sourceID, fingerprint: fingerprint(cfg, features)}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.models[key]
	return f, ok
}

// Put stores a fitted forest for the source, config and feature columns.
func (c *ModelCache) Put(sourceID string, cfg Config, features []string, f *iforest.IsolationForest) {
	key := modelKey{source: sourceID, fingerprint: fingerprint(cfg, features)}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[key] = f
}

// Invalidate drops every cached model for exactly this source, across all
// fingerprints.
func (c *ModelCache) Invalidate(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.models {
		if key.source == sourceID {
			delete(c.models, key)
		}
	}
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// fingerprint hashes the tunables and the ordered feature columns that
// shape a fitted model.
func fingerprint(cfg Config, features []string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%g|%g|%g|%d",
		cfg.ZScoreThreshold, cfg.NullRateThreshold,
		cfg.IsolationContamination, cfg.MinHistoryForDrift)
	for _, f := range features {
		_, _ = io.WriteString(h, "|")
		_, _ = io.WriteString(h, f)
	}
	return h.Sum64()
}
