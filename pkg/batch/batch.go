// Package batch defines the in-memory tabular batch model consumed by the
// profiling and detection engine.
package batch

import (
	"errors"
	"fmt"
	"strconv"
)

// ValueKind identifies the scalar type held by a Value.
type ValueKind int

const (
	// KindNull marks a missing value. Null is distinct from the empty
	// string and from zero.
	KindNull ValueKind = iota
	KindFloat
	KindInt
	KindString
	KindBool
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single tagged scalar cell.
type Value struct {
	Kind ValueKind

	num float64
	str string
	b   bool
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// Float wraps a float64.
func Float(f float64) Value {
	return Value{Kind: KindFloat, num: f}
}

// Int wraps an int64.
func Int(i int64) Value {
	return Value{Kind: KindInt, num: float64(i)}
}

// String wraps a string.
func String(s string) Value {
	return Value{Kind: KindString, str: s}
}

// Bool wraps a bool.
func Bool(v bool) Value {
	return Value{Kind: KindBool, b: v}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsNumeric reports whether the value holds a number.
func (v Value) IsNumeric() bool {
	return v.Kind == KindFloat || v.Kind == KindInt
}

// Float64 returns the numeric value. The second return is false for
// non-numeric and null values.
func (v Value) Float64() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.num, true
}

// Text renders the value for frequency counting and evidence output.
func (v Value) Text() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindFloat:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// ColumnType is the inferred type of a column, derived from its non-null
// cells.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeString  ColumnType = "string"
	TypeBool    ColumnType = "bool"
	TypeMixed   ColumnType = "mixed"
	// TypeNull is reported for columns with no non-null cells.
	TypeNull ColumnType = "null"
)

// Column is an ordered, named sequence of scalar cells.
type Column struct {
	Name   string
	Values []Value
}

// InferType derives the column type from non-null cells. Int and float
// cells both count as numeric; any other mixture is mixed.
func (c Column) InferType() ColumnType {
	seen := TypeNull
	for _, v := range c.Values {
		var t ColumnType
		switch v.Kind {
		case KindNull:
			continue
		case KindFloat, KindInt:
			t = TypeNumeric
		case KindBool:
			t = TypeBool
		default:
			t = TypeString
		}
		if seen == TypeNull {
			seen = t
		} else if seen != t {
			return TypeMixed
		}
	}
	return seen
}

// Batch is one snapshot of tabular data: ordered named columns of equal
// length. Batches are supplied by the caller and never mutated by the
// engine.
type Batch struct {
	columns []Column
	rows    int
}

// ErrRaggedColumns is returned by New when column lengths differ.
var ErrRaggedColumns = errors.New("batch: columns have unequal lengths")

// New builds a batch from columns, validating that all columns have the
// same length.
func New(columns ...Column) (*Batch, error) {
	b := &Batch{columns: columns}
	for i, c := range columns {
		if i == 0 {
			b.rows = len(c.Values)
			continue
		}
		if len(c.Values) != b.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d",
				ErrRaggedColumns, c.Name, len(c.Values), b.rows)
		}
	}
	return b, nil
}

// Rows returns the number of rows.
func (b *Batch) Rows() int {
	if b == nil {
		return 0
	}
	return b.rows
}

// Columns returns the columns in order.
func (b *Batch) Columns() []Column {
	if b == nil {
		return nil
	}
	return b.columns
}

// Column returns the named column. The second return is false when the
// column does not exist.
func (b *Batch) Column(name string) (Column, bool) {
	if b == nil {
		return Column{}, false
	}
	for _, c := range b.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Empty reports whether the batch has zero rows or zero columns.
func (b *Batch) Empty() bool {
	return b == nil || b.rows == 0 || len(b.columns) == 0
}
