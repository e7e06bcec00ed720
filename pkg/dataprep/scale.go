package dataprep

import (
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

// StandardScaler standardizes a vector column with per-slot moments.
type StandardScaler struct {
	InputCol  string
	OutputCol string
	WithMean  bool
	WithStd   bool
}

// NewStandardScaler scales to unit standard deviation without centring.
func NewStandardScaler(inputCol, outputCol string) *StandardScaler {
	return &StandardScaler{InputCol: inputCol, OutputCol: outputCol, WithStd: true}
}

func (s *StandardScaler) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	vecs, err := f.Vectors(s.InputCol)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, 0, len(vecs))
	for _, v := range vecs {
		if v != nil {
			rows = append(rows, v.ToDense())
		}
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("dataprep: column %q has no vectors to scale", s.InputCol)
	}
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return nil, errors.Errorf("dataprep: row %d has %d slots, want %d", i, len(r), len(rows[0]))
		}
	}
	return &StandardScalerModel{
		inputCol:  s.InputCol,
		outputCol: s.OutputCol,
		withMean:  s.WithMean,
		withStd:   s.WithStd,
		moments:   stats.ColumnMoments(rows),
	}, nil
}

// StandardScalerModel is a fitted StandardScaler.
type StandardScalerModel struct {
	inputCol, outputCol string
	withMean, withStd   bool
	moments             stats.Moments
}

// Moments returns the fitted per-slot mean and standard deviation.
func (m *StandardScalerModel) Moments() stats.Moments { return m.moments }

func (m *StandardScalerModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	vecs, err := f.Vectors(m.inputCol)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Vector, len(vecs))
	for i, v := range vecs {
		if v == nil {
			continue
		}
		if v.Len() != len(m.moments.Mean) {
			return nil, errors.Errorf("dataprep: scaler fitted on %d slots, row %d has %d", len(m.moments.Mean), i, v.Len())
		}
		out[i] = core.Dense(m.moments.Standardize(v.ToDense(), m.withMean, m.withStd))
	}
	return f.WithVectors(m.outputCol, f.Attrs(m.inputCol), out)
}
