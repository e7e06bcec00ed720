package model

import (
	"math"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/optim"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

// LogisticRegression is a binary classifier fitted by L-BFGS on the mean
// log loss with an L2 penalty. Labels must be 0 or 1.
type LogisticRegression struct {
	Columns

	MaxIter  int
	RegParam float64 // L2 strength
	Tol      float64
	// Threshold on P(y=1) above which the prediction is 1.
	Threshold    float64
	FitIntercept bool
	// Standardization fits on features scaled to unit variance; returned
	// coefficients are always on the original scale.
	Standardization bool
}

// NewLogisticRegression returns a model with 100 iterations, no
// regularisation, an intercept, standardization and threshold 0.5.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		MaxIter:         100,
		Tol:             1e-6,
		Threshold:       0.5,
		FitIntercept:    true,
		Standardization: true,
	}
}

// LogisticRegressionModel is a fitted binary logistic regression.
type LogisticRegressionModel struct {
	cols         Columns
	layout       layout
	coefficients []float64
	intercept    float64
	threshold    float64
	summary      TrainingSummary
}

// TrainingSummary reports how an iterative fit ended.
type TrainingSummary struct {
	Iterations int
	Objective  float64
	Status     string
}

func (lr *LogisticRegression) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return lr.FitLogistic(f)
}

// FitLogistic is Fit with the concrete model type.
func (lr *LogisticRegression) FitLogistic(f *frame.Frame) (*LogisticRegressionModel, error) {
	if lr.RegParam < 0 {
		return nil, errors.Errorf("logistic: negative regParam %v", lr.RegParam)
	}
	if lr.Threshold < 0 || lr.Threshold > 1 {
		return nil, errors.Errorf("logistic: threshold %v outside [0, 1]", lr.Threshold)
	}
	cols := lr.Columns.withDefaults()
	ds, err := extract(f, cols)
	if err != nil {
		return nil, err
	}
	for i, y := range ds.y {
		if y != 0 && y != 1 {
			return nil, errors.Errorf("logistic: label %v in row %d is not binary", y, i)
		}
	}

	X := ds.X
	var moments stats.Moments
	if lr.Standardization {
		moments = stats.ColumnMoments(ds.X)
		X = make([][]float64, len(ds.X))
		for i, row := range ds.X {
			X[i] = moments.Standardize(row, false, true)
		}
	}
	loss := &optim.LogisticLoss{X: X, Y: ds.y, L2: lr.RegParam, Intercept: lr.FitIntercept}
	res, err := optim.Minimize(loss, optim.Settings{MaxIter: lr.MaxIter, Tol: lr.Tol})
	if err != nil {
		return nil, err
	}

	coef := make([]float64, ds.p)
	for j := range coef {
		coef[j] = res.X[j]
		// zero-spread columns were trained unscaled
		if lr.Standardization && moments.Std[j] != 0 {
			coef[j] /= moments.Std[j]
		}
	}
	intercept := 0.0
	if lr.FitIntercept {
		intercept = res.X[ds.p]
	}
	return &LogisticRegressionModel{
		cols:         cols,
		layout:       layout{p: ds.p, attrs: ds.attrs},
		coefficients: coef,
		intercept:    intercept,
		threshold:    lr.Threshold,
		summary:      TrainingSummary{Iterations: res.Iterations, Objective: res.F, Status: res.Status},
	}, nil
}

func (m *LogisticRegressionModel) NumFeatures() int { return m.layout.p }
func (m *LogisticRegressionModel) NumClasses() int  { return 2 }

// Coefficients returns the weights on the original feature scale.
func (m *LogisticRegressionModel) Coefficients() []float64 {
	return append([]float64(nil), m.coefficients...)
}
func (m *LogisticRegressionModel) Intercept() float64       { return m.intercept }
func (m *LogisticRegressionModel) Threshold() float64       { return m.threshold }
func (m *LogisticRegressionModel) Summary() TrainingSummary { return m.summary }

// WithThreshold returns a copy predicting 1 when P(y=1) > t.
func (m *LogisticRegressionModel) WithThreshold(t float64) *LogisticRegressionModel {
	cp := *m
	cp.threshold = t
	return &cp
}

func (m *LogisticRegressionModel) margin(x []float64) float64 {
	s := m.intercept
	for j, v := range x {
		s += m.coefficients[j] * v
	}
	return s
}

// scoreRow emits rawPrediction [-margin, margin] and probability
// [1-p, p] with p the sigmoid of the margin.
func (m *LogisticRegressionModel) scoreRow(x []float64) score {
	mg := m.margin(x)
	p := optim.Sigmoid(mg)
	pred := 0.0
	if p > m.threshold {
		pred = 1
	}
	return score{pred: pred, raw: []float64{-mg, mg}, prob: []float64{1 - p, p}}
}

func (m *LogisticRegressionModel) Predict(x *core.Vector) (float64, error) {
	if err := m.layout.check(x); err != nil {
		return 0, err
	}
	return m.scoreRow(x.ToDense()).pred, nil
}

func (m *LogisticRegressionModel) PredictProbability(x *core.Vector) (*core.Vector, error) {
	if err := m.layout.check(x); err != nil {
		return nil, err
	}
	return core.Dense(m.scoreRow(x.ToDense()).prob), nil
}

func (m *LogisticRegressionModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return transform(f, m.cols, m.layout, m.scoreRow)
}

// LogLoss is the mean binary cross-entropy of the model on f.
func (m *LogisticRegressionModel) LogLoss(f *frame.Frame) (float64, error) {
	ds, err := extract(f, m.cols)
	if err != nil {
		return 0, err
	}
	if ds.p != m.layout.p {
		return 0, errors.Wrapf(ErrFeatureMismatch, "got %d features, model expects %d", ds.p, m.layout.p)
	}
	s := 0.0
	for i, x := range ds.X {
		p := math.Min(math.Max(optim.Sigmoid(m.margin(x)), 1e-12), 1-1e-12)
		y := ds.y[i]
		s += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return s / float64(len(ds.X)), nil
}
