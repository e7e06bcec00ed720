package dataprep

import (
	"math"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

// Imputation strategies.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
	StrategyMode   = "mode"
)

// Imputer replaces nulls in numeric columns with a per-column surrogate
// learned from the non-null values. Output columns are Float.
type Imputer struct {
	InputCols  []string
	OutputCols []string
	Strategy   string // mean (default), median or mode
}

func (im *Imputer) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	strategy := im.Strategy
	if strategy == "" {
		strategy = StrategyMean
	}
	var surrogate func([]float64) float64
	switch strategy {
	case StrategyMean:
		surrogate = stats.Mean
	case StrategyMedian:
		surrogate = stats.Median
	case StrategyMode:
		surrogate = stats.Mode
	default:
		return nil, errors.Errorf("dataprep: unknown imputation strategy %q", im.Strategy)
	}
	if len(im.InputCols) == 0 || len(im.InputCols) != len(im.OutputCols) {
		return nil, errors.Errorf("dataprep: %d input columns for %d output columns", len(im.InputCols), len(im.OutputCols))
	}
	m := &ImputerModel{inputCols: im.InputCols, outputCols: im.OutputCols, surrogates: make([]float64, len(im.InputCols))}
	for k, name := range im.InputCols {
		if _, err := pipeline.Require(f, name, frame.Int, frame.Float); err != nil {
			return nil, err
		}
		vals, nulls, _ := f.Floats(name)
		present := make([]float64, 0, len(vals))
		for i, v := range vals {
			if !nulls[i] {
				present = append(present, v)
			}
		}
		s := surrogate(present)
		if math.IsNaN(s) {
			return nil, errors.Errorf("dataprep: column %q has only nulls", name)
		}
		m.surrogates[k] = s
	}
	return m, nil
}

// ImputerModel is a fitted Imputer.
type ImputerModel struct {
	inputCols, outputCols []string
	surrogates            []float64
}

// Surrogates returns the fill value of each input column.
func (m *ImputerModel) Surrogates() map[string]float64 {
	out := make(map[string]float64, len(m.inputCols))
	for k, name := range m.inputCols {
		out[name] = m.surrogates[k]
	}
	return out
}

func (m *ImputerModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	g := f
	for k, name := range m.inputCols {
		vals, nulls, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(vals))
		for i, v := range vals {
			if nulls[i] || math.IsNaN(v) {
				v = m.surrogates[k]
			}
			out[i] = v
		}
		if g, err = g.WithFloats(m.outputCols[k], out, nil); err != nil {
			return nil, err
		}
	}
	return g, nil
}
