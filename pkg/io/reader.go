// Package io defines the contracts between batch sources and the engine.
// Production connectors live outside this repository; the bundled CSV and
// PCAP sources exist for the CLI, the examples and tests.
package io

import "github.com/hed1ad/godriftml/pkg/batch"

// Source delivers tabular batches to the engine: named, ordered,
// equal-length columns of typed scalars where null is a distinct value,
// never an empty string or zero.
type Source interface {
	// Read returns the next complete batch.
	Read() (*batch.Batch, error)

	// Close releases resources.
	Close() error
}
