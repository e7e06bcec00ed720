package evaluation

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

func TestAreaUnderROC(t *testing.T) {
	auc, err := AreaUnderROC([]float64{0.1, 0.2, 0.8, 0.9}, []bool{false, false, true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, auc, test.ShouldAlmostEqual, 1.0)

	auc, err = AreaUnderROC([]float64{0.9, 0.8, 0.2, 0.1}, []bool{false, false, true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, auc, test.ShouldAlmostEqual, 0.0)

	// three of the four positive/negative pairs are ordered correctly
	auc, err = AreaUnderROC([]float64{0.1, 0.4, 0.35, 0.8}, []bool{false, false, true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, auc, test.ShouldAlmostEqual, 0.75)

	fpr, tpr, err := ROC([]float64{0.1, 0.4, 0.35, 0.8}, []bool{false, false, true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fpr[0], test.ShouldEqual, 0.0)
	test.That(t, fpr[len(fpr)-1], test.ShouldEqual, 1.0)
	test.That(t, tpr[len(tpr)-1], test.ShouldEqual, 1.0)

	_, err = AreaUnderROC([]float64{0.1, 0.2}, []bool{true, true})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAreaUnderPR(t *testing.T) {
	pr, err := AreaUnderPR([]float64{0.9, 0.8, 0.1}, []bool{true, true, false})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pr, test.ShouldAlmostEqual, 1.0)

	pr, err = AreaUnderPR([]float64{0.9, 0.8, 0.7}, []bool{true, false, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pr, test.ShouldAlmostEqual, 19.0/24)

	_, err = AreaUnderPR([]float64{0.3}, []bool{false})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfusion(t *testing.T) {
	c := Count([]float64{1, 0, 1, 0, 1}, []float64{1, 1, 0, 0, 1})
	test.That(t, c, test.ShouldResemble, Confusion{TP: 2, TN: 1, FP: 1, FN: 1})
	test.That(t, c.Total(), test.ShouldEqual, 5)
	test.That(t, c.Accuracy(), test.ShouldAlmostEqual, 0.6)
	test.That(t, c.Precision(), test.ShouldAlmostEqual, 2.0/3)
	test.That(t, c.Recall(), test.ShouldAlmostEqual, 2.0/3)
	test.That(t, c.F1(), test.ShouldAlmostEqual, 2.0/3)

	var none Confusion
	test.That(t, none.Precision(), test.ShouldEqual, 0.0)
	test.That(t, none.F1(), test.ShouldEqual, 0.0)

	p, r, f1 := PrecisionRecallF1([]float64{1, 0}, []float64{0, 0})
	test.That(t, []float64{p, r, f1}, test.ShouldResemble, []float64{0, 0, 0})
}

func TestConfusionMatrixSkipsNulls(t *testing.T) {
	f, err := frame.New(
		frame.Floats("label", []float64{1, 0, math.NaN(), 1}),
		frame.Floats("prediction", []float64{1, 1, 0, math.NaN()}),
	)
	test.That(t, err, test.ShouldBeNil)
	c, err := ConfusionMatrix(f, "label", "prediction")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, Confusion{TP: 1, FP: 1})

	g, err := frame.New(frame.Floats("label", []float64{math.NaN()}), frame.Floats("prediction", []float64{1}))
	test.That(t, err, test.ShouldBeNil)
	_, err = ConfusionMatrix(g, "label", "prediction")
	test.That(t, errors.Cause(err), test.ShouldEqual, data.ErrEmptyDataset)
}

func TestBinaryClassificationEvaluator(t *testing.T) {
	probs := []*core.Vector{
		core.Dense([]float64{0.9, 0.1}),
		core.Dense([]float64{0.2, 0.8}),
		core.Dense([]float64{0.7, 0.3}),
		core.Dense([]float64{0.4, 0.6}),
	}
	f, err := frame.New(
		frame.Floats("label", []float64{0, 1, 0, 1}),
		frame.Vectors("probability", probs),
		frame.Floats("score", []float64{0.1, 0.8, 0.3, 0.6}),
	)
	test.That(t, err, test.ShouldBeNil)

	e := &BinaryClassificationEvaluator{RawPredictionCol: "probability"}
	test.That(t, e.Name(), test.ShouldEqual, "areaUnderROC")
	test.That(t, e.LargerBetter(), test.ShouldBeTrue)
	auc, err := e.Evaluate(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, auc, test.ShouldAlmostEqual, 1.0)

	e = &BinaryClassificationEvaluator{RawPredictionCol: "score", Metric: "areaUnderPR"}
	pr, err := e.Evaluate(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pr, test.ShouldAlmostEqual, 1.0)

	_, err = (&BinaryClassificationEvaluator{RawPredictionCol: "score", Metric: "logLoss"}).Evaluate(f)
	test.That(t, err, test.ShouldNotBeNil)

	multi, err := frame.New(frame.Floats("label", []float64{0, 2}), frame.Floats("score", []float64{0.1, 0.2}))
	test.That(t, err, test.ShouldBeNil)
	_, err = (&BinaryClassificationEvaluator{RawPredictionCol: "score"}).Evaluate(multi)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMulticlassEvaluator(t *testing.T) {
	f, err := frame.New(
		frame.Floats("label", []float64{0, 1, 2, 2}),
		frame.Floats("prediction", []float64{0, 2, 2, 2}),
	)
	test.That(t, err, test.ShouldBeNil)

	acc, err := (&MulticlassClassificationEvaluator{Metric: "accuracy"}).Evaluate(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, acc, test.ShouldAlmostEqual, 0.75)

	f1, err := (&MulticlassClassificationEvaluator{}).Evaluate(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f1, test.ShouldAlmostEqual, 0.65)

	rec, err := (&MulticlassClassificationEvaluator{Metric: "weightedRecall"}).Evaluate(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec, test.ShouldAlmostEqual, 0.75)

	_, err = (&MulticlassClassificationEvaluator{Metric: "hamming"}).Evaluate(f)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRegressionEvaluator(t *testing.T) {
	f, err := frame.New(
		frame.Floats("duration", []float64{1, 2, 3}),
		frame.Floats("prediction", []float64{1, 2, 5}),
	)
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		metric string
		want   float64
		larger bool
	}{
		{"", math.Sqrt(4.0 / 3), false},
		{"mse", 4.0 / 3, false},
		{"mae", 2.0 / 3, false},
		{"r2", -1, true},
	} {
		e := &RegressionEvaluator{LabelCol: "duration", Metric: tc.metric}
		v, err := e.Evaluate(f)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldAlmostEqual, tc.want)
		test.That(t, e.LargerBetter(), test.ShouldEqual, tc.larger)
	}

	_, err = (&RegressionEvaluator{LabelCol: "duration", Metric: "mape"}).Evaluate(f)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMetricHelpers(t *testing.T) {
	test.That(t, math.IsNaN(MSE(nil, nil)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(Accuracy(nil, nil)), test.ShouldBeTrue)
	test.That(t, R2([]float64{2, 2}, []float64{1, 3}), test.ShouldEqual, 0.0)
	test.That(t, BinaryPredFromProba([]float64{0.2, 0.5, 0.51}, 0.5), test.ShouldResemble, []float64{0, 0, 1})
}
