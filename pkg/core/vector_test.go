package core

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestSparse(t *testing.T) {
	v, err := Sparse(5, []int{3, 1}, []float64{2, 7})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.Len(), test.ShouldEqual, 5)
	test.That(t, v.NNZ(), test.ShouldEqual, 2)
	test.That(t, v.At(1), test.ShouldEqual, 7.0)
	test.That(t, v.At(3), test.ShouldEqual, 2.0)
	test.That(t, v.At(0), test.ShouldEqual, 0.0)
	test.That(t, v.ToDense(), test.ShouldResemble, []float64{0, 7, 0, 2, 0})
	test.That(t, v.String(), test.ShouldEqual, "(5,[1,3],[7.0,2.0])")

	_, err = Sparse(3, []int{3}, []float64{1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Sparse(3, []int{1, 1}, []float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Sparse(3, []int{1}, []float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDense(t *testing.T) {
	src := []float64{1, 2.5, 3}
	v := Dense(src)
	src[0] = 100
	test.That(t, v.At(0), test.ShouldEqual, 1.0)
	test.That(t, v.IsSparse(), test.ShouldBeFalse)
	test.That(t, v.String(), test.ShouldEqual, "[1.0,2.5,3.0]")
	test.That(t, v.Dot([]float64{1, 1, 1}), test.ShouldEqual, 6.5)
	test.That(t, v.VecDense().AtVec(1), test.ShouldEqual, 2.5)
}

func TestConcat(t *testing.T) {
	a := Dense([]float64{1, 2})
	b := OneHot(3, 1)
	c := Zeros(2)

	v := Concat(a, b, c)
	test.That(t, v.Len(), test.ShouldEqual, 7)
	test.That(t, v.IsSparse(), test.ShouldBeTrue)
	test.That(t, v.ToDense(), test.ShouldResemble, []float64{1, 2, 0, 1, 0, 0, 0})

	d := Concat(a, Dense([]float64{3}))
	test.That(t, d.IsSparse(), test.ShouldBeFalse)
	test.That(t, d.Equal(Dense([]float64{1, 2, 3})), test.ShouldBeTrue)
}

func TestMapAndNaN(t *testing.T) {
	v, err := Sparse(4, []int{0, 2}, []float64{1, 3})
	test.That(t, err, test.ShouldBeNil)
	doubled := v.Map(func(_ int, x float64) float64 { return 2 * x })
	test.That(t, doubled.ToDense(), test.ShouldResemble, []float64{2, 0, 6, 0})
	test.That(t, doubled.HasNaN(), test.ShouldBeFalse)

	bad := Dense([]float64{1, math.NaN()})
	test.That(t, bad.HasNaN(), test.ShouldBeTrue)
	test.That(t, Dense([]float64{math.Inf(1)}).HasNaN(), test.ShouldBeTrue)
}

func TestRows(t *testing.T) {
	m, err := Rows([]*Vector{Dense([]float64{1, 2}), OneHot(2, 1)})
	test.That(t, err, test.ShouldBeNil)
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 2)
	test.That(t, c, test.ShouldEqual, 2)
	test.That(t, m.At(1, 1), test.ShouldEqual, 1.0)

	_, err = Rows([]*Vector{Dense([]float64{1}), Dense([]float64{1, 2})})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Rows(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
