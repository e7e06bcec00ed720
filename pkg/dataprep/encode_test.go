package dataprep

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

func carriers(t *testing.T, vals ...string) *frame.Frame {
	t.Helper()
	f, err := frame.New(frame.Strings("carrier", vals))
	test.That(t, err, test.ShouldBeNil)
	return f
}

func indexed(t *testing.T, f *frame.Frame, col string) []float64 {
	t.Helper()
	v, nulls, err := f.Floats(col)
	test.That(t, err, test.ShouldBeNil)
	for _, n := range nulls {
		test.That(t, n, test.ShouldBeFalse)
	}
	return v
}

func TestLabelEncodeOrder(t *testing.T) {
	labels, counts := LabelEncode([]string{"UA", "AA", "OO", "AA", "OO", "B6"}, nil)
	// frequency first, then first appearance
	test.That(t, labels, test.ShouldResemble, []string{"AA", "OO", "UA", "B6"})
	test.That(t, counts["AA"], test.ShouldEqual, 2)

	labels, _ = LabelEncode([]string{"x", "", "y"}, []bool{false, true, false})
	test.That(t, labels, test.ShouldResemble, []string{"x", "y"})
}

func TestStringIndexer(t *testing.T) {
	f := carriers(t, "UA", "AA", "OO", "AA", "OO", "AA")
	fitted, err := (&StringIndexer{InputCol: "carrier", OutputCol: "carrier_idx"}).Fit(f)
	test.That(t, err, test.ShouldBeNil)
	m := fitted.(*StringIndexerModel)
	test.That(t, m.Labels(), test.ShouldResemble, []string{"AA", "OO", "UA"})
	i, ok := m.Index("OO")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, i, test.ShouldEqual, 1)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, indexed(t, g, "carrier_idx"), test.ShouldResemble, []float64{2, 0, 1, 0, 1, 0})
}

func TestStringIndexerUnseen(t *testing.T) {
	train := carriers(t, "UA", "AA")
	score := carriers(t, "AA", "DL", "UA")

	fitted, err := (&StringIndexer{InputCol: "carrier", OutputCol: "idx"}).Fit(train)
	test.That(t, err, test.ShouldBeNil)
	_, err = fitted.Transform(score)
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrUnseenLabel)
	test.That(t, err.Error(), test.ShouldContainSubstring, "DL")

	fitted, err = (&StringIndexer{InputCol: "carrier", OutputCol: "idx", HandleInvalid: HandleSkip}).Fit(train)
	test.That(t, err, test.ShouldBeNil)
	g, err := fitted.Transform(score)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Count(), test.ShouldEqual, 2)

	fitted, err = (&StringIndexer{InputCol: "carrier", OutputCol: "idx", HandleInvalid: HandleKeep}).Fit(train)
	test.That(t, err, test.ShouldBeNil)
	g, err = fitted.Transform(score)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, indexed(t, g, "idx"), test.ShouldResemble, []float64{1, 2, 0})

	_, err = (&StringIndexer{InputCol: "carrier", OutputCol: "idx", HandleInvalid: "ignore"}).Fit(train)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOneHotEncoder(t *testing.T) {
	f, err := frame.New(frame.Ints("org_idx", []int{0, 2, 1, 2, 0}))
	test.That(t, err, test.ShouldBeNil)

	fitted, err := NewOneHotEncoder([]string{"org_idx"}, []string{"org_dummy"}).Fit(f)
	test.That(t, err, test.ShouldBeNil)
	m := fitted.(*OneHotEncoderModel)
	test.That(t, m.Sizes(), test.ShouldResemble, []int{3})
	test.That(t, m.VectorSize(0), test.ShouldEqual, 2)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, err := g.Vectors("org_dummy")
	test.That(t, err, test.ShouldBeNil)
	for _, v := range vecs {
		test.That(t, v.Len(), test.ShouldEqual, 2)
	}
	test.That(t, vecs[0].ToDense(), test.ShouldResemble, []float64{1, 0})
	test.That(t, vecs[2].ToDense(), test.ShouldResemble, []float64{0, 1})
	// last category is the all-zero vector
	test.That(t, vecs[1].ToDense(), test.ShouldResemble, []float64{0, 0})
	test.That(t, g.Attrs("org_dummy"), test.ShouldResemble, []string{"org_idx_0", "org_idx_1"})

	full := &OneHotEncoder{InputCols: []string{"org_idx"}, OutputCols: []string{"org_dummy"}}
	fitted, err = full.Fit(f)
	test.That(t, err, test.ShouldBeNil)
	g, err = fitted.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, _ = g.Vectors("org_dummy")
	test.That(t, vecs[1].ToDense(), test.ShouldResemble, []float64{0, 0, 1})
}

func TestOneHotOutOfRange(t *testing.T) {
	train, err := frame.New(frame.Ints("c", []int{0, 1}))
	test.That(t, err, test.ShouldBeNil)
	score, err := frame.New(frame.Ints("c", []int{0, 5}))
	test.That(t, err, test.ShouldBeNil)

	fitted, err := NewOneHotEncoder([]string{"c"}, []string{"v"}).Fit(train)
	test.That(t, err, test.ShouldBeNil)
	_, err = fitted.Transform(score)
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrInvalidCategory)

	keep := NewOneHotEncoder([]string{"c"}, []string{"v"})
	keep.HandleInvalid = HandleKeep
	fitted, err = keep.Fit(train)
	test.That(t, err, test.ShouldBeNil)
	g, err := fitted.Transform(score)
	test.That(t, err, test.ShouldBeNil)
	vecs, _ := g.Vectors("v")
	test.That(t, vecs[1].ToDense(), test.ShouldResemble, []float64{0, 0})
	test.That(t, vecs[0].ToDense(), test.ShouldResemble, []float64{1, 0})

	bad, err := frame.New(frame.Floats("c", []float64{0.5}))
	test.That(t, err, test.ShouldBeNil)
	_, err = NewOneHotEncoder([]string{"c"}, []string{"v"}).Fit(bad)
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrInvalidCategory)

	skip := NewOneHotEncoder([]string{"c"}, []string{"v"})
	skip.HandleInvalid = HandleSkip
	_, err = skip.Fit(train)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIndexAndEncodePipeline(t *testing.T) {
	f := carriers(t, "UA", "AA", "OO", "AA")
	p := pipeline.New(
		&StringIndexer{InputCol: "carrier", OutputCol: "carrier_idx"},
		NewOneHotEncoder([]string{"carrier_idx"}, []string{"carrier_dummy"}),
	)
	fitted, err := p.Fit(f)
	test.That(t, err, test.ShouldBeNil)
	g, err := fitted.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vecs, err := g.Vectors("carrier_dummy")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vecs[1].ToDense(), test.ShouldResemble, []float64{1, 0})
}
