// Package csv reads CSV files into typed batches.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hed1ad/godriftml/pkg/batch"
)

// Reader reads one CSV file as a batch. Cells parse as float, bool or
// string; empty cells and the tokens "null", "na" and "nan" (any case)
// become null.
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	hasHeader bool
	headers   []string
}

// Option configures a Reader.
type Option func(*Reader)

// WithHeader indicates whether the file starts with a header row. Without
// one, columns are named col_0, col_1, ...
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// NewReader opens a CSV file.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:      file,
		reader:    csv.NewReader(file),
		hasHeader: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		r.headers = headers
	}
	return r, nil
}

// Headers returns the column names, nil before the first Read when the
// file has no header row.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read consumes the remaining records and returns them as one batch.
func (r *Reader) Read() (*batch.Batch, error) {
	records, err := r.reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	width := len(r.headers)
	if width == 0 && len(records) > 0 {
		width = len(records[0])
	}

	columns := make([]batch.Column, width)
	for i := range columns {
		name := fmt.Sprintf("col_%d", i)
		if i < len(r.headers) {
			name = r.headers[i]
		}
		columns[i] = batch.Column{Name: name, Values: make([]batch.Value, 0, len(records))}
	}

	for _, record := range records {
		for i := range columns {
			if i >= len(record) {
				columns[i].Values = append(columns[i].Values, batch.Null())
				continue
			}
			columns[i].Values = append(columns[i].Values, parseCell(record[i]))
		}
	}

	return batch.New(columns...)
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// parseCell converts one CSV cell to a typed scalar.
func parseCell(cell string) batch.Value {
	trimmed := strings.TrimSpace(cell)
	switch strings.ToLower(trimmed) {
	case "", "null", "na", "nan":
		return batch.Null()
	case "true":
		return batch.Bool(true)
	case "false":
		return batch.Bool(false)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return batch.Float(f)
	}
	return batch.String(trimmed)
}
