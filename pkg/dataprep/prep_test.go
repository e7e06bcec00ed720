package dataprep

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

func TestImputerStrategies(t *testing.T) {
	f, err := frame.New(frame.Floats("delay", []float64{1, math.NaN(), 3, 10}))
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		strategy string
		want     float64
	}{
		{"", 14.0 / 3},
		{StrategyMedian, 3},
		{StrategyMode, 1},
	} {
		t.Run(tc.strategy, func(t *testing.T) {
			im := &Imputer{InputCols: []string{"delay"}, OutputCols: []string{"delay_filled"}, Strategy: tc.strategy}
			fitted, err := im.Fit(f)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, fitted.(*ImputerModel).Surrogates()["delay"], test.ShouldAlmostEqual, tc.want)

			g, err := fitted.Transform(f)
			test.That(t, err, test.ShouldBeNil)
			vals, nulls, err := g.Floats("delay_filled")
			test.That(t, err, test.ShouldBeNil)
			test.That(t, nulls[1], test.ShouldBeFalse)
			test.That(t, vals[1], test.ShouldAlmostEqual, tc.want)
			test.That(t, vals[3], test.ShouldEqual, 10.0)
		})
	}

	_, err = (&Imputer{InputCols: []string{"delay"}, OutputCols: []string{"x"}, Strategy: "max"}).Fit(f)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = (&Imputer{InputCols: []string{"delay"}}).Fit(f)
	test.That(t, err, test.ShouldNotBeNil)

	allNull, err := frame.New(frame.Floats("delay", []float64{math.NaN(), math.NaN()}))
	test.That(t, err, test.ShouldBeNil)
	_, err = (&Imputer{InputCols: []string{"delay"}, OutputCols: []string{"delay"}}).Fit(allNull)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStandardScaler(t *testing.T) {
	f, err := frame.New(frame.Vectors("raw", []*core.Vector{
		core.Dense([]float64{1, 10}),
		core.Dense([]float64{3, 10}),
		core.Dense([]float64{5, 10}),
	}))
	test.That(t, err, test.ShouldBeNil)

	s := NewStandardScaler("raw", "scaled")
	s.WithMean = true
	fitted, err := s.Fit(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fitted.(*StandardScalerModel).Moments().Mean, test.ShouldResemble, []float64{3, 10})

	g, err := fitted.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, _ := g.Vectors("scaled")
	test.That(t, vecs[0].ToDense(), test.ShouldResemble, []float64{-1, 0})
	test.That(t, vecs[2].ToDense(), test.ShouldResemble, []float64{1, 0})

	fitted, err = NewStandardScaler("raw", "scaled").Fit(f)
	test.That(t, err, test.ShouldBeNil)
	g, err = fitted.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, _ = g.Vectors("scaled")
	test.That(t, vecs[2].ToDense(), test.ShouldResemble, []float64{2.5, 10})
}

func TestPCA(t *testing.T) {
	rows := []*core.Vector{
		core.Dense([]float64{1, 2}),
		core.Dense([]float64{2, 4}),
		core.Dense([]float64{3, 6}),
		core.Dense([]float64{4, 8}),
	}
	f, err := frame.New(frame.Vectors("raw", rows))
	test.That(t, err, test.ShouldBeNil)

	fitted, err := (&PCA{InputCol: "raw", OutputCol: "pca", K: 1}).Fit(f)
	test.That(t, err, test.ShouldBeNil)
	m := fitted.(*PCAModel)
	ev := m.ExplainedVariance()
	test.That(t, ev, test.ShouldHaveLength, 1)
	test.That(t, ev[0], test.ShouldAlmostEqual, 25.0/3, 1e-9)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, _ := g.Vectors("pca")
	test.That(t, vecs[0].Len(), test.ShouldEqual, 1)
	test.That(t, math.Abs(vecs[0].At(0)), test.ShouldAlmostEqual, 1.5*math.Sqrt(5), 1e-9)
	test.That(t, vecs[0].At(0)*vecs[3].At(0), test.ShouldBeLessThan, 0)

	_, err = (&PCA{InputCol: "raw", OutputCol: "pca", K: 3}).Fit(f)
	test.That(t, err, test.ShouldNotBeNil)
	one, err := frame.New(frame.Vectors("raw", rows[:1]))
	test.That(t, err, test.ShouldBeNil)
	_, err = (&PCA{InputCol: "raw", OutputCol: "pca", K: 1}).Fit(one)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNullFilter(t *testing.T) {
	f, err := frame.New(
		frame.Floats("km", []float64{1, math.NaN(), 3}),
		frame.Strings("org", []string{"JFK", "ORD", ""}).Nulls([]bool{false, false, true}),
	)
	test.That(t, err, test.ShouldBeNil)

	g, err := (&NullFilter{Cols: []string{"km"}}).Transform(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Count(), test.ShouldEqual, 2)

	g, err = (&NullFilter{}).Transform(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Count(), test.ShouldEqual, 1)
}

func TestSparseColumnDropper(t *testing.T) {
	f, err := frame.New(
		frame.Floats("delay", []float64{math.NaN(), math.NaN(), math.NaN(), 4}),
		frame.Floats("km", []float64{1, 2, math.NaN(), 4}),
		frame.Floats("label", []float64{math.NaN(), math.NaN(), math.NaN(), 1}),
	)
	test.That(t, err, test.ShouldBeNil)

	obs, logs := observer.New(zapcore.InfoLevel)
	d := &SparseColumnDropper{MaxNullFraction: 0.5, Keep: []string{"label"}, Logger: zap.New(obs)}
	g, err := d.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Columns(), test.ShouldResemble, []string{"km", "label"})
	test.That(t, logs.FilterMessage("dropping sparse column").Len(), test.ShouldEqual, 1)

	_, err = (&SparseColumnDropper{MaxNullFraction: 2}).Transform(f)
	test.That(t, err, test.ShouldNotBeNil)
}
