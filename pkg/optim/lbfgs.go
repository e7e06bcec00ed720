// Package optim holds the objectives the models minimise and a thin
// wrapper over gonum's quasi-Newton solver.
package optim

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// Objective is a differentiable function of the parameter vector.
type Objective interface {
	Dim() int
	Func(w []float64) float64
	Grad(grad, w []float64)
}

// Settings bounds a minimisation run.
type Settings struct {
	MaxIter int     // major iterations, default 100
	Tol     float64 // gradient norm threshold, default 1e-6
}

// Result is the minimiser found.
type Result struct {
	X          []float64
	F          float64
	Iterations int
	Status     string
}

// Minimize runs L-BFGS from the zero vector.
func Minimize(obj Objective, s Settings) (Result, error) {
	if s.MaxIter <= 0 {
		s.MaxIter = 100
	}
	if s.Tol <= 0 {
		s.Tol = 1e-6
	}
	problem := optimize.Problem{Func: obj.Func, Grad: obj.Grad}
	settings := &optimize.Settings{
		MajorIterations:   s.MaxIter,
		GradientThreshold: s.Tol,
	}
	res, err := optimize.Minimize(problem, make([]float64, obj.Dim()), settings, &optimize.LBFGS{})
	if res == nil {
		return Result{}, errors.Wrap(err, "optim: l-bfgs")
	}
	// A line search that stalls still leaves a usable iterate.
	if err != nil && !finite(res.X) {
		return Result{}, errors.Wrap(err, "optim: l-bfgs")
	}
	return Result{
		X:          res.X,
		F:          res.F,
		Iterations: res.Stats.MajorIterations,
		Status:     res.Status.String(),
	}, nil
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return len(x) > 0
}
