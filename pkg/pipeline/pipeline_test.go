package pipeline

import (
	"testing"

	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// double writes twice the input column.
type double struct{ in, out string }

func (d double) Transform(f *frame.Frame) (*frame.Frame, error) {
	return f.WithColumn(d.out, frame.Col(d.in).Mul(frame.Lit(2)))
}

// centre learns the column mean and subtracts it.
type centre struct {
	in, out string
	seen    *int
}

func (c centre) Fit(f *frame.Frame) (Transformer, error) {
	*c.seen = f.Count()
	vals, _, err := f.Floats(c.in)
	if err != nil {
		return nil, err
	}
	m := 0.0
	for _, v := range vals {
		m += v
	}
	m /= float64(len(vals))
	return centred{in: c.in, out: c.out, mean: m}, nil
}

type centred struct {
	in, out string
	mean    float64
}

func (c centred) Transform(f *frame.Frame) (*frame.Frame, error) {
	return f.WithColumn(c.out, frame.Col(c.in).Sub(frame.Lit(c.mean)))
}

func TestPipelineFitAndTransform(t *testing.T) {
	f, err := frame.New(frame.Floats("mile", []float64{1, 2, 3}))
	test.That(t, err, test.ShouldBeNil)

	seen := 0
	p := New(double{"mile", "twice"}, centre{in: "twice", out: "centred", seen: &seen})
	test.That(t, p.Stages(), test.ShouldHaveLength, 2)

	fitted, err := p.Fit(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seen, test.ShouldEqual, 3)
	m := fitted.(*Model)
	test.That(t, m.Stages(), test.ShouldHaveLength, 2)
	test.That(t, m.Last().(centred).mean, test.ShouldEqual, 4.0)

	g, err := m.Transform(f)
	test.That(t, err, test.ShouldBeNil)
	vals, _, err := g.Floats("centred")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldResemble, []float64{-2, 0, 2})

	// the fitted model only reads the raw input column
	_, err = m.Transform(f.Drop("mile"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPipelineErrors(t *testing.T) {
	f, err := frame.New(frame.Floats("mile", []float64{1}))
	test.That(t, err, test.ShouldBeNil)

	_, err = New("not a stage").Fit(f)
	test.That(t, err, test.ShouldNotBeNil)

	seen := 0
	_, err = New(centre{in: "missing", out: "x", seen: &seen}).Fit(f)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, (&Model{}).Last(), test.ShouldBeNil)
}

func TestRequire(t *testing.T) {
	f, err := frame.New(frame.Strings("org", []string{"JFK"}), frame.Ints("mon", []int{1}))
	test.That(t, err, test.ShouldBeNil)

	typ, err := Require(f, "org", frame.String)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, typ, test.ShouldEqual, frame.String)
	_, err = Require(f, "mon", frame.String)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Require(f, "dow")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, RequireAbsent(f, "org"), test.ShouldNotBeNil)
	test.That(t, RequireAbsent(f, "km"), test.ShouldBeNil)
}
