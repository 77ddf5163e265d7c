package profile

import (
	"math"
	"sort"

	"github.com/hed1ad/godriftml/pkg/batch"
)

// topK is the number of most-frequent values reported for non-numeric
// columns.
const topK = 5

// Quantiles holds the 25th, 50th and 75th percentiles of a numeric column.
type Quantiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// ValueCount is one entry of a top-k frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile is the statistical summary of one column. Numeric
// aggregates are pointers: nil means undefined (all-null column), which is
// distinct from a real zero.
type ColumnProfile struct {
	Name          string           `json:"name"`
	Type          batch.ColumnType `json:"type"`
	Count         int              `json:"count"`
	NullCount     int              `json:"null_count"`
	DistinctCount int              `json:"distinct_count"`

	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
	Mean      *float64   `json:"mean,omitempty"`
	StdDev    *float64   `json:"stddev,omitempty"`
	Quantiles *Quantiles `json:"quantiles,omitempty"`

	TopValues []ValueCount `json:"top_values,omitempty"`
}

// NullRate returns the fraction of null cells, zero for an empty column.
func (c ColumnProfile) NullRate() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.NullCount) / float64(c.Count)
}

// ProfileColumn computes the summary statistics for a single column.
// It has no side effects and is deterministic regardless of input order.
func ProfileColumn(col batch.Column) ColumnProfile {
	cp := ColumnProfile{
		Name:  col.Name,
		Type:  col.InferType(),
		Count: len(col.Values),
	}

	distinct := make(map[string]int)
	var nums []float64
	for _, v := range col.Values {
		if v.IsNull() {
			cp.NullCount++
			continue
		}
		distinct[v.Text()]++
		if f, ok := v.Float64(); ok {
			nums = append(nums, f)
		}
	}
	cp.DistinctCount = len(distinct)

	if cp.Type == batch.TypeNumeric && len(nums) > 0 {
		addNumericStats(&cp, nums)
	} else if len(distinct) > 0 {
		cp.TopValues = topValues(distinct, topK)
	}

	return cp
}

// addNumericStats fills min/max/mean/stddev/quantiles from the non-null
// numeric cells. stddev is the population deviation and is 0 when only one
// value is present.
func addNumericStats(cp *ColumnProfile, nums []float64) {
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var sum float64
	for _, f := range sorted {
		sum += f
	}
	mean := sum / n

	var sq float64
	for _, f := range sorted {
		d := f - mean
		sq += d * d
	}
	std := 0.0
	if len(sorted) > 1 {
		std = math.Sqrt(sq / n)
	}

	cp.Min = ptr(sorted[0])
	cp.Max = ptr(sorted[len(sorted)-1])
	cp.Mean = ptr(mean)
	cp.StdDev = ptr(std)
	cp.Quantiles = &Quantiles{
		P25: quantile(sorted, 0.25),
		P50: quantile(sorted, 0.50),
		P75: quantile(sorted, 0.75),
	}
}

// quantile computes the q-th quantile by linear interpolation over a sorted
// slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// topValues returns the k most frequent values. Ties break on the value
// text so the result is deterministic.
func topValues(counts map[string]int, k int) []ValueCount {
	all := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		all = append(all, ValueCount{Value: v, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Value < all[j].Value
	})
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func ptr(f float64) *float64 {
	return &f
}
