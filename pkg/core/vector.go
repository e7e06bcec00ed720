package core

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Vector is a fixed-length numeric array stored either densely or as sorted
// (index, value) pairs. Vectors are never mutated after construction.
type Vector struct {
	size int
	idx  []int // nil for dense vectors
	vals []float64
}

// Dense returns a dense vector holding a copy of vals.
func Dense(vals []float64) *Vector {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &Vector{size: len(vals), vals: cp}
}

// Sparse returns a sparse vector of the given size. Indices may be given in any
// order but must be unique and within [0, size).
func Sparse(size int, idx []int, vals []float64) (*Vector, error) {
	if size < 0 {
		return nil, errors.Errorf("core: negative vector size %d", size)
	}
	if len(idx) != len(vals) {
		return nil, errors.Errorf("core: %d indices but %d values", len(idx), len(vals))
	}
	order := make([]int, len(idx))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return idx[order[a]] < idx[order[b]] })

	v := &Vector{size: size, idx: make([]int, len(idx)), vals: make([]float64, len(idx))}
	for k, o := range order {
		i := idx[o]
		if i < 0 || i >= size {
			return nil, errors.Errorf("core: index %d out of range for size %d", i, size)
		}
		if k > 0 && v.idx[k-1] == i {
			return nil, errors.Errorf("core: duplicate index %d", i)
		}
		v.idx[k] = i
		v.vals[k] = vals[o]
	}
	return v, nil
}

// Zeros returns an all-zero sparse vector.
func Zeros(size int) *Vector { return &Vector{size: size, idx: []int{}, vals: []float64{}} }

// OneHot returns a sparse indicator vector with a single 1 at position i.
func OneHot(size, i int) *Vector {
	return &Vector{size: size, idx: []int{i}, vals: []float64{1}}
}

func (v *Vector) Len() int       { return v.size }
func (v *Vector) IsSparse() bool { return v.idx != nil }

// NNZ returns the number of explicitly stored entries.
func (v *Vector) NNZ() int { return len(v.vals) }

// At returns element i.
func (v *Vector) At(i int) float64 {
	if v.idx == nil {
		return v.vals[i]
	}
	k := sort.SearchInts(v.idx, i)
	if k < len(v.idx) && v.idx[k] == i {
		return v.vals[k]
	}
	return 0
}

// Each calls fn for every stored entry in index order.
func (v *Vector) Each(fn func(i int, x float64)) {
	if v.idx == nil {
		for i, x := range v.vals {
			fn(i, x)
		}
		return
	}
	for k, i := range v.idx {
		fn(i, v.vals[k])
	}
}

// ToDense returns a freshly allocated dense copy.
func (v *Vector) ToDense() []float64 {
	out := make([]float64, v.size)
	v.Each(func(i int, x float64) { out[i] = x })
	return out
}

// Dot computes the inner product with w, which must have length v.Len().
func (v *Vector) Dot(w []float64) float64 {
	s := 0.0
	v.Each(func(i int, x float64) { s += x * w[i] })
	return s
}

// HasNaN reports whether any stored entry is NaN or infinite.
func (v *Vector) HasNaN() bool {
	for _, x := range v.vals {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// VecDense converts v to a gonum vector.
func (v *Vector) VecDense() *mat.VecDense {
	return mat.NewVecDense(v.size, v.ToDense())
}

// Equal reports whether both vectors have the same length and elements.
func (v *Vector) Equal(o *Vector) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.size != o.size {
		return false
	}
	for i := 0; i < v.size; i++ {
		if v.At(i) != o.At(i) {
			return false
		}
	}
	return true
}

// Concat joins vectors end to end. The result is sparse when any input is.
func Concat(vs ...*Vector) *Vector {
	size := 0
	sparse := false
	for _, v := range vs {
		size += v.size
		sparse = sparse || v.IsSparse()
	}
	if !sparse {
		vals := make([]float64, 0, size)
		for _, v := range vs {
			vals = append(vals, v.vals...)
		}
		return &Vector{size: size, vals: vals}
	}
	out := &Vector{size: size, idx: []int{}, vals: []float64{}}
	offset := 0
	for _, v := range vs {
		v.Each(func(i int, x float64) {
			if x == 0 {
				return
			}
			out.idx = append(out.idx, offset+i)
			out.vals = append(out.vals, x)
		})
		offset += v.size
	}
	return out
}

// Map applies f to every stored entry and returns a vector with the same layout.
func (v *Vector) Map(f func(i int, x float64) float64) *Vector {
	out := &Vector{size: v.size, vals: make([]float64, len(v.vals))}
	if v.idx != nil {
		out.idx = append([]int{}, v.idx...)
	}
	v.Each(func(i int, x float64) {
		k := i
		if v.idx != nil {
			k = sort.SearchInts(v.idx, i)
		}
		out.vals[k] = f(i, x)
	})
	return out
}

// String renders the vector the way Spark prints ML vectors:
// dense as [1.0,2.0], sparse as (size,[indices],[values]).
func (v *Vector) String() string {
	f := func(x float64) string {
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	}
	var b strings.Builder
	if v.idx == nil {
		b.WriteByte('[')
		for i, x := range v.vals {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f(x))
		}
		b.WriteByte(']')
		return b.String()
	}
	b.WriteString("(" + strconv.Itoa(v.size) + ",[")
	for k, i := range v.idx {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteString("],[")
	for k, x := range v.vals {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f(x))
	}
	b.WriteString("])")
	return b.String()
}

// Rows stacks equal-length vectors into an n x p gonum matrix.
func Rows(vs []*Vector) (*mat.Dense, error) {
	if len(vs) == 0 {
		return nil, errors.New("core: no rows")
	}
	p := vs[0].size
	if p == 0 {
		return nil, errors.New("core: zero-length vectors")
	}
	m := mat.NewDense(len(vs), p, nil)
	for r, v := range vs {
		if v.size != p {
			return nil, errors.Errorf("core: row %d has length %d, want %d", r, v.size, p)
		}
		v.Each(func(i int, x float64) { m.Set(r, i, x) })
	}
	return m, nil
}
