package model

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

func labeled(t *testing.T, xs [][]float64, y []float64, attrs ...string) *frame.Frame {
	t.Helper()
	vecs := make([]*core.Vector, len(xs))
	for i, x := range xs {
		vecs[i] = core.Dense(x)
	}
	col := frame.Vectors(FeaturesCol, vecs)
	if len(attrs) > 0 {
		col = col.WithAttrs(attrs)
	}
	f, err := frame.New(col, frame.Floats(LabelCol, y))
	test.That(t, err, test.ShouldBeNil)
	return f
}

// twoGroups is 1-d data with class 0 below 10 and class 1 above.
func twoGroups(t *testing.T, n int) *frame.Frame {
	t.Helper()
	var xs [][]float64
	var y []float64
	for i := 0; i < n; i++ {
		xs = append(xs, []float64{float64(i % 5)}, []float64{20 + float64(i%5)})
		y = append(y, 0, 1)
	}
	return labeled(t, xs, y, "x")
}

func TestDecisionTree(t *testing.T) {
	f := twoGroups(t, 3)
	m, err := NewDecisionTreeClassifier().FitTree(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumClasses(), test.ShouldEqual, 2)
	test.That(t, m.NumFeatures(), test.ShouldEqual, 1)
	test.That(t, m.Depth(), test.ShouldEqual, 1)
	test.That(t, m.NumNodes(), test.ShouldEqual, 3)
	test.That(t, m.FeatureImportances(), test.ShouldResemble, []float64{1})
	test.That(t, m.DebugString(), test.ShouldContainSubstring, "If (x <= 11)")

	pred, err := m.Predict(core.Dense([]float64{25}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pred, test.ShouldEqual, 1.0)
	prob, err := m.PredictProbability(core.Dense([]float64{1}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, prob.ToDense(), test.ShouldResemble, []float64{1, 0})

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	preds, _, err := g.Floats(PredictionCol)
	test.That(t, err, test.ShouldBeNil)
	labels, _, _ := g.Floats(LabelCol)
	test.That(t, preds, test.ShouldResemble, labels)
	test.That(t, g.Has(RawPredictionCol), test.ShouldBeTrue)
	test.That(t, g.Has(ProbabilityCol), test.ShouldBeTrue)
}

func TestDecisionTreeDepthZero(t *testing.T) {
	f := labeled(t, [][]float64{{1}, {2}, {3}}, []float64{1, 0, 1})
	m, err := NewDecisionTreeClassifier(WithMaxDepth(0)).FitTree(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumNodes(), test.ShouldEqual, 1)
	pred, err := m.Predict(core.Dense([]float64{2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pred, test.ShouldEqual, 1.0)

	_, err = NewDecisionTreeClassifier(WithImpurity("variance")).FitTree(f)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewDecisionTreeClassifier().FitTree(labeled(t, [][]float64{{1}}, []float64{0.5}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFeatureMismatch(t *testing.T) {
	m, err := NewDecisionTreeClassifier().FitTree(twoGroups(t, 2))
	test.That(t, err, test.ShouldBeNil)

	_, err = m.Predict(core.Dense([]float64{1, 2}))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)

	_, err = m.Predict(core.Dense([]float64{math.NaN()}))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)
	_, err = m.Transform(labeled(t, [][]float64{{3}, {math.NaN()}}, []float64{0, 0}))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)

	lin, err := NewLinearRegression().FitLinear(twoGroups(t, 2))
	test.That(t, err, test.ShouldBeNil)
	_, err = lin.Predict(core.Dense([]float64{math.NaN()}))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)

	renamed := labeled(t, [][]float64{{1}}, []float64{0}, "distance")
	_, err = m.Transform(renamed)
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)

	_, err = NewDecisionTreeClassifier().FitTree(labeled(t, [][]float64{{1}, {1, 2}}, []float64{0, 1}))
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrFeatureMismatch)

	empty := labeled(t, nil, nil)
	_, err = NewDecisionTreeClassifier().FitTree(empty)
	test.That(t, errors.Cause(err), test.ShouldEqual, data.ErrEmptyDataset)
}

func TestPrune(t *testing.T) {
	train := labeled(t,
		[][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}},
		[]float64{0, 1, 0, 1, 0, 1, 1, 1},
	)
	m, err := NewDecisionTreeClassifier().FitTree(train)
	test.That(t, err, test.ShouldBeNil)
	before := m.NumNodes()

	validation := labeled(t, [][]float64{{1}, {2}, {3}, {4}, {7}, {8}}, []float64{0, 0, 0, 0, 1, 1})
	pruned, n, err := m.Prune(validation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldBeGreaterThan, 0)
	test.That(t, pruned.NumNodes(), test.ShouldEqual, before-2*n)
	test.That(t, m.NumNodes(), test.ShouldEqual, before)

	_, _, err = m.Prune(labeled(t, [][]float64{{1, 2}}, []float64{0}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRandomForest(t *testing.T) {
	f := twoGroups(t, 10)
	rf := NewRandomForest(WithNumTrees(8), WithForestSeed(3), WithFeatureSubsetStrategy("all"))
	m, err := rf.FitForest(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Trees(), test.ShouldHaveLength, 8)
	test.That(t, m.FeatureImportances(), test.ShouldResemble, []float64{1})

	prob, err := m.PredictProbability(core.Dense([]float64{22}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, prob.At(0)+prob.At(1), test.ShouldAlmostEqual, 1.0)
	test.That(t, prob.At(1), test.ShouldBeGreaterThan, 0.5)
	pred, err := m.Predict(core.Dense([]float64{2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pred, test.ShouldEqual, 0.0)

	again, err := rf.FitForest(f)
	test.That(t, err, test.ShouldBeNil)
	p2, _ := again.PredictProbability(core.Dense([]float64{12}))
	p1, _ := m.PredictProbability(core.Dense([]float64{12}))
	test.That(t, p2.ToDense(), test.ShouldResemble, p1.ToDense())

	_, err = NewRandomForest(WithNumTrees(0)).FitForest(f)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRandomForest(WithFeatureSubsetStrategy("half")).FitForest(f)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubsetSize(t *testing.T) {
	rf := NewRandomForest()
	m, err := rf.subsetSize(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldEqual, 4)
	rf.FeatureSubsetStrategy = "onethird"
	m, _ = rf.subsetSize(10)
	test.That(t, m, test.ShouldEqual, 4)
	rf.FeatureSubsetStrategy = "log2"
	m, _ = rf.subsetSize(1)
	test.That(t, m, test.ShouldEqual, 1)
}

func TestLogisticRegression(t *testing.T) {
	var xs [][]float64
	var y []float64
	for i := -6; i <= 6; i++ {
		x := float64(i) / 2
		label := 0.0
		if x > 0 {
			label = 1
		}
		// overlap keeps the optimum finite
		if i == 1 || i == -1 {
			label = 1 - label
		}
		xs = append(xs, []float64{x})
		y = append(y, label)
	}
	f := labeled(t, xs, y)

	m, err := NewLogisticRegression().FitLogistic(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Coefficients()[0], test.ShouldBeGreaterThan, 0)
	test.That(t, m.Summary().Iterations, test.ShouldBeGreaterThan, 0)

	pred, err := m.Predict(core.Dense([]float64{5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pred, test.ShouldEqual, 1.0)
	pred, _ = m.Predict(core.Dense([]float64{-5}))
	test.That(t, pred, test.ShouldEqual, 0.0)

	prob, err := m.PredictProbability(core.Dense([]float64{0.5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, prob.At(0)+prob.At(1), test.ShouldAlmostEqual, 1.0)
	strict := m.WithThreshold(0.99)
	pred, _ = strict.Predict(core.Dense([]float64{0.5}))
	test.That(t, pred, test.ShouldEqual, 0.0)
	test.That(t, m.Threshold(), test.ShouldEqual, 0.5)

	loss, err := m.LogLoss(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loss, test.ShouldBeLessThan, math.Ln2)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	raw, err := g.Vectors(RawPredictionCol)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw[0].At(0), test.ShouldAlmostEqual, -raw[0].At(1))

	reg := NewLogisticRegression()
	reg.RegParam = 1
	shrunk, err := reg.FitLogistic(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, shrunk.Coefficients()[0], test.ShouldBeLessThan, m.Coefficients()[0])

	_, err = NewLogisticRegression().FitLogistic(labeled(t, [][]float64{{1}, {2}}, []float64{0, 2}))
	test.That(t, err, test.ShouldNotBeNil)
	bad := NewLogisticRegression()
	bad.Threshold = 1.5
	_, err = bad.FitLogistic(f)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLogisticRegressionConstantColumn(t *testing.T) {
	var xs [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i%20)/4 - 2.5
		label := 0.0
		// a small deterministic shift makes the classes overlap
		if i%20+(i*7)%5-2 >= 10 {
			label = 1
		}
		xs = append(xs, []float64{v, 5})
		y = append(y, label)
	}
	f := labeled(t, xs, y, "v", "five")

	for _, intercept := range []bool{true, false} {
		lr := NewLogisticRegression()
		lr.FitIntercept = intercept
		m, err := lr.FitLogistic(f)
		test.That(t, err, test.ShouldBeNil)
		// the weight fitted on the constant column is kept
		if !intercept {
			test.That(t, m.Coefficients()[1], test.ShouldNotEqual, 0.0)
		}
		loss, err := m.LogLoss(f)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, loss, test.ShouldAlmostEqual, m.Summary().Objective, 1e-6)

		if intercept {
			// at the optimum the mean probability matches the label mean
			meanP, meanY := 0.0, 0.0
			for i, x := range xs {
				p, err := m.PredictProbability(core.Dense(x))
				test.That(t, err, test.ShouldBeNil)
				meanP += p.At(1)
				meanY += y[i]
			}
			test.That(t, meanP/40, test.ShouldAlmostEqual, meanY/40, 1e-3)
		}
	}
}

func TestLinearRegression(t *testing.T) {
	var xs [][]float64
	var y []float64
	for i := 0; i < 12; i++ {
		x1, x2 := float64(i), float64((i*7)%5)
		xs = append(xs, []float64{x1, x2})
		y = append(y, 2+3*x1-x2)
	}
	f := labeled(t, xs, y, "km", "dow")

	m, err := NewLinearRegression().FitLinear(f)
	test.That(t, err, test.ShouldBeNil)
	coef := m.Coefficients()
	test.That(t, coef[0], test.ShouldAlmostEqual, 3, 1e-8)
	test.That(t, coef[1], test.ShouldAlmostEqual, -1, 1e-8)
	test.That(t, m.Intercept(), test.ShouldAlmostEqual, 2, 1e-8)
	test.That(t, m.Attrs(), test.ShouldResemble, []string{"km", "dow"})

	s := m.Summary()
	test.That(t, s.Solver, test.ShouldEqual, "cholesky")
	test.That(t, s.Rows, test.ShouldEqual, 12)
	test.That(t, s.RMSE, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, s.R2, test.ShouldAlmostEqual, 1, 1e-8)

	pred, err := m.Predict(core.Dense([]float64{10, 1}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pred, test.ShouldAlmostEqual, 31, 1e-8)

	ridge := NewLinearRegression()
	ridge.RegParam = 1
	shrunk, err := ridge.FitLinear(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(shrunk.Coefficients()[0]), test.ShouldBeLessThan, 3)

	ridge.RegParam = -1
	_, err = ridge.FitLinear(f)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestKMeans(t *testing.T) {
	var xs [][]float64
	for i := 0; i < 10; i++ {
		d := float64(i%3) * 0.1
		xs = append(xs, []float64{d, d}, []float64{10 + d, 10 - d})
	}
	f := labeled(t, xs, make([]float64, len(xs)))

	km := NewKMeans(2)
	km.Seed = 5
	m, err := km.FitKMeans(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.ClusterCenters(), test.ShouldHaveLength, 2)
	test.That(t, m.Iterations(), test.ShouldBeGreaterThan, 0)
	test.That(t, m.TrainingCost(), test.ShouldBeLessThan, 1)

	a, err := m.Predict(core.Dense([]float64{0, 0}))
	test.That(t, err, test.ShouldBeNil)
	b, _ := m.Predict(core.Dense([]float64{10, 10}))
	test.That(t, a, test.ShouldNotEqual, b)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	clusters, _, _ := g.Floats(PredictionCol)
	test.That(t, clusters[0], test.ShouldEqual, a)
	test.That(t, clusters[1], test.ShouldEqual, b)

	_, err = NewKMeans(1).FitKMeans(f)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewKMeans(3).FitKMeans(labeled(t, [][]float64{{1}, {2}}, []float64{0, 0}))
	test.That(t, err, test.ShouldNotBeNil)
}
