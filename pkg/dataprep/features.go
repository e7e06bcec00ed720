package dataprep

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

// VectorAssembler concatenates numeric and vector columns, in InputCols
// order, into one vector column. The output records one slot name per
// position so downstream models can reject mismatched inputs.
type VectorAssembler struct {
	InputCols     []string
	OutputCol     string
	HandleInvalid string // error (default), skip or keep
}

func (a *VectorAssembler) Transform(f *frame.Frame) (*frame.Frame, error) {
	policy, err := checkPolicy(a.HandleInvalid)
	if err != nil {
		return nil, err
	}
	if len(a.InputCols) == 0 {
		return nil, errors.New("dataprep: vector assembler needs input columns")
	}
	n := f.Count()
	parts := make([][]*core.Vector, len(a.InputCols))
	var attrs []string
	var skip []bool
	mark := func(i int) {
		if skip == nil {
			skip = make([]bool, n)
		}
		skip[i] = true
	}

	for k, name := range a.InputCols {
		t, err := f.TypeOf(name)
		if err != nil {
			return nil, err
		}
		col := make([]*core.Vector, n)
		switch {
		case t.Numeric():
			vals, nulls, _ := f.Floats(name)
			for i, v := range vals {
				if nulls[i] {
					v = math.NaN()
				}
				col[i] = core.Dense([]float64{v})
			}
			attrs = append(attrs, name)
		case t == frame.Vector:
			vecs, _ := f.Vectors(name)
			size := -1
			for _, v := range vecs {
				if v != nil {
					size = v.Len()
					break
				}
			}
			if size < 0 {
				return nil, errors.Errorf("dataprep: vector column %q has no values", name)
			}
			for i, v := range vecs {
				if v == nil {
					col[i] = core.Dense(nanSlice(size))
					continue
				}
				if v.Len() != size {
					return nil, errors.Errorf("dataprep: column %q row %d has %d slots, want %d", name, i, v.Len(), size)
				}
				col[i] = v
			}
			attrs = append(attrs, slotNames(name, f.Attrs(name), size)...)
		default:
			return nil, errors.Errorf("dataprep: cannot assemble %s column %q", t, name)
		}
		parts[k] = col
	}

	out := make([]*core.Vector, n)
	row := make([]*core.Vector, len(parts))
	for i := 0; i < n; i++ {
		for k := range parts {
			row[k] = parts[k][i]
		}
		v := core.Concat(row...)
		if v.HasNaN() {
			switch policy {
			case HandleError:
				return nil, errors.Errorf("dataprep: row %d has null or NaN features; use skip or keep", i)
			case HandleSkip:
				mark(i)
			}
		}
		out[i] = v
	}
	g, err := f.WithVectors(a.OutputCol, attrs, out)
	if err != nil {
		return nil, err
	}
	return dropFlagged(g, skip)
}

func slotNames(col string, attrs []string, size int) []string {
	if len(attrs) == size {
		return attrs
	}
	names := make([]string, size)
	for j := range names {
		names[j] = col + "_" + strconv.Itoa(j)
	}
	return names
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// ---------------------------
// Bucketizer
// ---------------------------

// Bucketizer maps a numeric column to bucket indices. Splits must be
// strictly increasing with at least three entries; bucket i covers
// [splits[i], splits[i+1]) and the last bucket also includes its upper
// bound. Use math.Inf for open ends.
type Bucketizer struct {
	InputCol      string
	OutputCol     string
	Splits        []float64
	HandleInvalid string
}

// EqualWidthSplits returns splits dividing the observed range of x into n
// equal-width buckets with open outer ends.
func EqualWidthSplits(x []float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, errors.Errorf("dataprep: need at least 2 buckets, got %d", n)
	}
	min, max := stats.MinMax(x)
	if math.IsNaN(min) || min == max {
		return nil, errors.New("dataprep: values have no spread to bucket")
	}
	width := (max - min) / float64(n)
	splits := make([]float64, n+1)
	splits[0], splits[n] = math.Inf(-1), math.Inf(1)
	for i := 1; i < n; i++ {
		splits[i] = min + float64(i)*width
	}
	return splits, nil
}

func (b *Bucketizer) Transform(f *frame.Frame) (*frame.Frame, error) {
	policy, err := checkPolicy(b.HandleInvalid)
	if err != nil {
		return nil, err
	}
	if len(b.Splits) < 3 {
		return nil, errors.Errorf("dataprep: bucketizer needs at least 3 splits, got %d", len(b.Splits))
	}
	for i := 1; i < len(b.Splits); i++ {
		if !(b.Splits[i] > b.Splits[i-1]) {
			return nil, errors.Errorf("dataprep: splits must be strictly increasing, got %v", b.Splits)
		}
	}
	vals, nulls, err := f.Floats(b.InputCol)
	if err != nil {
		return nil, err
	}
	buckets := len(b.Splits) - 1
	out := make([]float64, len(vals))
	var skip []bool
	for i, v := range vals {
		idx := -1
		if !nulls[i] && !math.IsNaN(v) {
			idx = bucketOf(b.Splits, v)
		}
		if idx >= 0 {
			out[i] = float64(idx)
			continue
		}
		switch policy {
		case HandleKeep:
			out[i] = float64(buckets)
		case HandleSkip:
			if skip == nil {
				skip = make([]bool, len(vals))
			}
			skip[i] = true
		default:
			return nil, errors.Errorf("dataprep: value %v in column %q outside splits %v", v, b.InputCol, b.Splits)
		}
	}
	g, err := f.WithFloats(b.OutputCol, out, nil)
	if err != nil {
		return nil, err
	}
	return dropFlagged(g, skip)
}

// bucketOf returns the bucket holding v or -1.
func bucketOf(splits []float64, v float64) int {
	last := len(splits) - 1
	if v < splits[0] || v > splits[last] {
		return -1
	}
	if v == splits[last] {
		return last - 1
	}
	// first split >= v
	i := sort.SearchFloat64s(splits, v)
	if splits[i] == v {
		return i
	}
	return i - 1
}
