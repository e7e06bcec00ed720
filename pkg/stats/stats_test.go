package stats

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestSummaries(t *testing.T) {
	x := []float64{4, math.NaN(), 1, 3, 2}
	test.That(t, Mean(x), test.ShouldEqual, 2.5)
	test.That(t, Median(x), test.ShouldEqual, 2.5)
	test.That(t, StdDev(x), test.ShouldAlmostEqual, math.Sqrt(5.0/3))
	lo, hi := MinMax(x)
	test.That(t, lo, test.ShouldEqual, 1.0)
	test.That(t, hi, test.ShouldEqual, 4.0)

	s := Summarize(x)
	test.That(t, s.Count, test.ShouldEqual, 4)
	test.That(t, s.Mean, test.ShouldEqual, 2.5)
	test.That(t, s.Min, test.ShouldEqual, 1.0)
	test.That(t, s.Max, test.ShouldEqual, 4.0)
}

func TestEmptyIsNaN(t *testing.T) {
	test.That(t, math.IsNaN(Mean(nil)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(Median([]float64{math.NaN()})), test.ShouldBeTrue)
	test.That(t, math.IsNaN(Mode(nil)), test.ShouldBeTrue)
	test.That(t, StdDev([]float64{7}), test.ShouldEqual, 0.0)
}

func TestMode(t *testing.T) {
	test.That(t, Mode([]float64{3, 1, 3, 2}), test.ShouldEqual, 3.0)
	// ties and all-distinct inputs pick the smallest value
	test.That(t, Mode([]float64{2, 2, 1, 1}), test.ShouldEqual, 1.0)
	test.That(t, Mode([]float64{5, 4, 6}), test.ShouldEqual, 4.0)
	test.That(t, Mode([]float64{9}), test.ShouldEqual, 9.0)
}

func TestColumnMoments(t *testing.T) {
	X := [][]float64{{1, 10}, {3, 10}, {5, 10}}
	m := ColumnMoments(X)
	test.That(t, m.Mean, test.ShouldResemble, []float64{3, 10})
	test.That(t, m.Std[0], test.ShouldEqual, 2.0)
	test.That(t, m.Std[1], test.ShouldEqual, 0.0)

	z := m.Standardize([]float64{5, 12}, true, true)
	test.That(t, z, test.ShouldResemble, []float64{1, 2})
	z = m.Standardize([]float64{5, 12}, false, true)
	test.That(t, z[0], test.ShouldEqual, 2.5)

	test.That(t, ColumnMoments(nil).Mean, test.ShouldBeNil)
}
