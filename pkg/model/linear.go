package model

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

// LinearRegression fits least squares with an optional L2 penalty by
// solving the normal equations in closed form.
type LinearRegression struct {
	Columns

	RegParam     float64
	FitIntercept bool
	// Standardization applies the penalty to coefficients of unit-variance
	// features. Coefficients are reported on the original scale either way.
	Standardization bool
}

// NewLinearRegression returns an unregularised model with an intercept.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{FitIntercept: true, Standardization: true}
}

// LinearRegressionModel is a fitted linear model.
type LinearRegressionModel struct {
	cols         Columns
	layout       layout
	coefficients []float64
	intercept    float64
	summary      RegressionSummary
}

// RegressionSummary holds training-set fit statistics.
type RegressionSummary struct {
	RMSE   float64
	MAE    float64
	R2     float64
	Solver string // cholesky or svd
	Rows   int
}

func (lr *LinearRegression) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return lr.FitLinear(f)
}

// FitLinear is Fit with the concrete model type. The normal equations are
// factorised with Cholesky; a singular system falls back to the SVD
// minimum-norm solution.
func (lr *LinearRegression) FitLinear(f *frame.Frame) (*LinearRegressionModel, error) {
	if lr.RegParam < 0 {
		return nil, errors.Errorf("linear: negative regParam %v", lr.RegParam)
	}
	cols := lr.Columns.withDefaults()
	ds, err := extract(f, cols)
	if err != nil {
		return nil, err
	}
	n, p := len(ds.X), ds.p

	moments := stats.ColumnMoments(ds.X)
	yMean := 0.0
	if lr.FitIntercept {
		yMean = stats.Mean(ds.y)
	}
	scale := make([]float64, p)
	for j := range scale {
		scale[j] = 1
		if lr.Standardization && moments.Std[j] > 0 {
			scale[j] = moments.Std[j]
		}
	}

	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range ds.X {
		for j, v := range row {
			if lr.FitIntercept {
				v -= moments.Mean[j]
			}
			X.Set(i, j, v/scale[j])
		}
		y.SetVec(i, ds.y[i]-yMean)
	}

	beta, solver, err := solveRidge(X, y, lr.RegParam*float64(n))
	if err != nil {
		return nil, err
	}
	coef := make([]float64, p)
	intercept := yMean
	for j := range coef {
		coef[j] = beta.AtVec(j) / scale[j]
		if lr.FitIntercept {
			intercept -= coef[j] * moments.Mean[j]
		}
	}

	m := &LinearRegressionModel{
		cols:         cols,
		layout:       layout{p: p, attrs: ds.attrs},
		coefficients: coef,
		intercept:    intercept,
	}
	fitted := make([]float64, n)
	for i, row := range ds.X {
		fitted[i] = m.predictRow(row)
	}
	m.summary = summarize(ds.y, fitted)
	m.summary.Solver = solver
	return m, nil
}

// solveRidge solves (XᵀX + λI)β = Xᵀy.
func solveRidge(X *mat.Dense, y *mat.VecDense, lambda float64) (*mat.VecDense, string, error) {
	_, p := X.Dims()
	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	for j := 0; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); ok {
		var beta mat.VecDense
		if err := chol.SolveVecTo(&beta, &xty); err == nil {
			return &beta, "cholesky", nil
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, "", errors.New("linear: svd factorization failed")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return nil, "", errors.New("linear: design matrix has rank zero")
	}
	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)
	return &beta, "svd", nil
}

func summarize(y, fitted []float64) RegressionSummary {
	mse, mae := 0.0, 0.0
	for i := range y {
		d := fitted[i] - y[i]
		mse += d * d
		mae += math.Abs(d)
	}
	n := float64(len(y))
	return RegressionSummary{
		RMSE: math.Sqrt(mse / n),
		MAE:  mae / n,
		R2:   stat.RSquaredFrom(fitted, y, nil),
		Rows: len(y),
	}
}

func (m *LinearRegressionModel) NumFeatures() int { return m.layout.p }

// Coefficients returns one weight per feature slot.
func (m *LinearRegressionModel) Coefficients() []float64 {
	return append([]float64(nil), m.coefficients...)
}
func (m *LinearRegressionModel) Intercept() float64         { return m.intercept }
func (m *LinearRegressionModel) Summary() RegressionSummary { return m.summary }

// Attrs returns the feature slot names seen at fit time, if any.
func (m *LinearRegressionModel) Attrs() []string { return append([]string(nil), m.layout.attrs...) }

func (m *LinearRegressionModel) predictRow(x []float64) float64 {
	s := m.intercept
	for j, v := range x {
		s += m.coefficients[j] * v
	}
	return s
}

func (m *LinearRegressionModel) Predict(x *core.Vector) (float64, error) {
	if err := m.layout.check(x); err != nil {
		return 0, err
	}
	return x.Dot(m.coefficients) + m.intercept, nil
}

// Transform appends the prediction column.
func (m *LinearRegressionModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return transform(f, m.cols, m.layout, func(x []float64) score {
		return score{pred: m.predictRow(x)}
	})
}
