package dataprep

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// Invalid-value policies shared by the encoding stages.
const (
	HandleError = "error" // fail the transform
	HandleSkip  = "skip"  // drop the row
	HandleKeep  = "keep"  // map to an extra bucket
)

var (
	// ErrUnseenLabel is returned when a category was not present at fit time.
	ErrUnseenLabel = errors.New("dataprep: unseen label")
	// ErrInvalidCategory is returned for indices outside the fitted range.
	ErrInvalidCategory = errors.New("dataprep: invalid category index")
)

func checkPolicy(p string) (string, error) {
	switch p {
	case "":
		return HandleError, nil
	case HandleError, HandleSkip, HandleKeep:
		return p, nil
	}
	return "", errors.Errorf("dataprep: unknown handleInvalid policy %q", p)
}

// ---------------------------
// StringIndexer
// ---------------------------

// StringIndexer maps the distinct values of a column to dense indices,
// most frequent first; ties keep the order values were first seen.
type StringIndexer struct {
	InputCol      string
	OutputCol     string
	HandleInvalid string
}

// Fit counts the non-null values of InputCol.
func (s *StringIndexer) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	policy, err := checkPolicy(s.HandleInvalid)
	if err != nil {
		return nil, err
	}
	if _, err := pipeline.Require(f, s.InputCol, frame.String, frame.Int, frame.Float, frame.Bool); err != nil {
		return nil, err
	}
	vals, nulls, err := f.Strings(s.InputCol)
	if err != nil {
		return nil, err
	}
	labels, _ := LabelEncode(vals, nulls)
	if len(labels) == 0 {
		return nil, errors.Errorf("dataprep: column %q has no non-null values to index", s.InputCol)
	}
	return NewStringIndexerModel(s.InputCol, s.OutputCol, policy, labels), nil
}

// LabelEncode returns the distinct non-null values ordered by descending
// frequency (ties by first appearance) and the count of each.
func LabelEncode(vals []string, nulls []bool) ([]string, map[string]int) {
	counts := map[string]int{}
	var seen []string
	for i, v := range vals {
		if nulls != nil && nulls[i] {
			continue
		}
		if _, ok := counts[v]; !ok {
			seen = append(seen, v)
		}
		counts[v]++
	}
	sort.SliceStable(seen, func(a, b int) bool { return counts[seen[a]] > counts[seen[b]] })
	return seen, counts
}

// StringIndexerModel is a fitted StringIndexer.
type StringIndexerModel struct {
	inputCol, outputCol string
	policy              string
	labels              []string
	index               map[string]int
}

func NewStringIndexerModel(inputCol, outputCol, policy string, labels []string) *StringIndexerModel {
	m := &StringIndexerModel{inputCol: inputCol, outputCol: outputCol, policy: policy, labels: labels, index: map[string]int{}}
	for i, l := range labels {
		m.index[l] = i
	}
	return m
}

// Labels returns the values in index order.
func (m *StringIndexerModel) Labels() []string { return append([]string(nil), m.labels...) }

// Index returns the index of value.
func (m *StringIndexerModel) Index(value string) (int, bool) {
	i, ok := m.index[value]
	return i, ok
}

// Transform adds OutputCol as a float index column. Unseen values and
// nulls follow the model's policy.
func (m *StringIndexerModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	vals, nulls, err := f.Strings(m.inputCol)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	var skip []bool
	for i, v := range vals {
		idx, ok := m.index[v]
		if ok && !nulls[i] {
			out[i] = float64(idx)
			continue
		}
		switch m.policy {
		case HandleKeep:
			out[i] = float64(len(m.labels))
		case HandleSkip:
			if skip == nil {
				skip = make([]bool, len(vals))
			}
			skip[i] = true
		default:
			if nulls[i] {
				return nil, errors.Wrapf(ErrUnseenLabel, "null in column %q (row %d)", m.inputCol, i)
			}
			return nil, errors.Wrapf(ErrUnseenLabel, "%q in column %q", v, m.inputCol)
		}
	}
	g, err := f.WithFloats(m.outputCol, out, nil)
	if err != nil {
		return nil, err
	}
	return dropFlagged(g, skip)
}

// dropFlagged removes rows flagged true; a nil mask keeps every row.
func dropFlagged(f *frame.Frame, skip []bool) (*frame.Frame, error) {
	if skip == nil {
		return f, nil
	}
	keep := make([]int, 0, len(skip))
	for i, s := range skip {
		if !s {
			keep = append(keep, i)
		}
	}
	return f.Subset(keep)
}

// ---------------------------
// OneHotEncoder
// ---------------------------

// OneHotEncoder expands category indices into indicator vectors. With
// DropLast (the default from NewOneHotEncoder) the last category maps to
// the all-zero vector and vectors have length cardinality-1.
type OneHotEncoder struct {
	InputCols     []string
	OutputCols    []string
	DropLast      bool
	HandleInvalid string
}

// NewOneHotEncoder returns an encoder with DropLast set.
func NewOneHotEncoder(inputCols, outputCols []string) *OneHotEncoder {
	return &OneHotEncoder{InputCols: inputCols, OutputCols: outputCols, DropLast: true}
}

// Fit learns the cardinality of every input column as max index + 1.
func (o *OneHotEncoder) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	policy, err := checkPolicy(o.HandleInvalid)
	if err != nil {
		return nil, err
	}
	if policy == HandleSkip {
		return nil, errors.New("dataprep: one-hot encoder supports only error and keep policies")
	}
	if len(o.InputCols) == 0 || len(o.InputCols) != len(o.OutputCols) {
		return nil, errors.Errorf("dataprep: %d input columns for %d output columns", len(o.InputCols), len(o.OutputCols))
	}
	sizes := make([]int, len(o.InputCols))
	for k, name := range o.InputCols {
		if _, err := pipeline.Require(f, name, frame.Int, frame.Float); err != nil {
			return nil, err
		}
		vals, nulls, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		max := -1
		for i, v := range vals {
			if nulls[i] {
				continue
			}
			if v < 0 || v != math.Trunc(v) {
				return nil, errors.Wrapf(ErrInvalidCategory, "%v in column %q", v, name)
			}
			if int(v) > max {
				max = int(v)
			}
		}
		if max < 0 {
			return nil, errors.Errorf("dataprep: column %q has no categories", name)
		}
		sizes[k] = max + 1
	}
	return &OneHotEncoderModel{
		inputCols:  o.InputCols,
		outputCols: o.OutputCols,
		dropLast:   o.DropLast,
		policy:     policy,
		sizes:      sizes,
	}, nil
}

// OneHotEncoderModel is a fitted OneHotEncoder.
type OneHotEncoderModel struct {
	inputCols, outputCols []string
	dropLast              bool
	policy                string
	sizes                 []int
}

// Sizes returns the fitted cardinality of each input column.
func (m *OneHotEncoderModel) Sizes() []int { return append([]int(nil), m.sizes...) }

// VectorSize returns the output length for input column k.
func (m *OneHotEncoderModel) VectorSize(k int) int {
	n := m.sizes[k]
	if m.policy == HandleKeep {
		n++
	}
	if m.dropLast {
		n--
	}
	return n
}

func (m *OneHotEncoderModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	g := f
	for k, name := range m.inputCols {
		vals, nulls, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		size := m.VectorSize(k)
		attrs := make([]string, size)
		for j := range attrs {
			attrs[j] = name + "_" + strconv.Itoa(j)
		}
		vecs := make([]*core.Vector, len(vals))
		for i, v := range vals {
			cat := int(v)
			if nulls[i] || v < 0 || v != math.Trunc(v) || cat >= m.sizes[k] {
				if m.policy != HandleKeep {
					if nulls[i] {
						return nil, errors.Wrapf(ErrInvalidCategory, "null in column %q (row %d)", name, i)
					}
					return nil, errors.Wrapf(ErrInvalidCategory, "%v in column %q (fitted size %d)", v, name, m.sizes[k])
				}
				cat = m.sizes[k]
			}
			if cat < size {
				vecs[i] = core.OneHot(size, cat)
			} else {
				vecs[i] = core.Zeros(size)
			}
		}
		if g, err = g.WithVectors(m.outputCols[k], attrs, vecs); err != nil {
			return nil, err
		}
	}
	return g, nil
}
