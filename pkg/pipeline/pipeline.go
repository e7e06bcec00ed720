package pipeline

import (
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// Transformer maps a frame to a new frame.
type Transformer interface {
	Transform(f *frame.Frame) (*frame.Frame, error)
}

// Estimator learns a Transformer from a frame.
type Estimator interface {
	Fit(f *frame.Frame) (Transformer, error)
}

// Stage is a Transformer or an Estimator.
type Stage any

// Pipeline chains stages. Fitting runs the stages in order, fitting each
// estimator on the output of the stages before it.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the configured stages.
func (p *Pipeline) Stages() []Stage { return append([]Stage(nil), p.stages...) }

// Fit returns a *Model holding one fitted transformer per stage.
func (p *Pipeline) Fit(f *frame.Frame) (Transformer, error) {
	m := &Model{stages: make([]Transformer, 0, len(p.stages))}
	for i, stage := range p.stages {
		var t Transformer
		switch s := stage.(type) {
		case Estimator:
			fitted, err := s.Fit(f)
			if err != nil {
				return nil, errors.Wrapf(err, "pipeline: fit stage %d (%T)", i, stage)
			}
			t = fitted
		case Transformer:
			t = s
		default:
			return nil, errors.Errorf("pipeline: stage %d (%T) is neither estimator nor transformer", i, stage)
		}
		m.stages = append(m.stages, t)
		// The last stage's output is not needed for fitting.
		if i == len(p.stages)-1 {
			break
		}
		var err error
		if f, err = t.Transform(f); err != nil {
			return nil, errors.Wrapf(err, "pipeline: transform stage %d (%T)", i, stage)
		}
	}
	return m, nil
}

// Model is a fitted pipeline.
type Model struct {
	stages []Transformer
}

// Stages returns the fitted transformers in order.
func (m *Model) Stages() []Transformer { return append([]Transformer(nil), m.stages...) }

// Last returns the final fitted stage, usually the trained model.
func (m *Model) Last() Transformer {
	if len(m.stages) == 0 {
		return nil
	}
	return m.stages[len(m.stages)-1]
}

func (m *Model) Transform(f *frame.Frame) (*frame.Frame, error) {
	for i, t := range m.stages {
		var err error
		if f, err = t.Transform(f); err != nil {
			return nil, errors.Wrapf(err, "pipeline: stage %d (%T)", i, t)
		}
	}
	return f, nil
}
