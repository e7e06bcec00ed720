package optim

import "math"

// Sigmoid is the logistic function, evaluated without overflow for large |x|.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}

// softplus is log(1 + e^x).
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// LogisticLoss is the mean binary cross-entropy of labels in {0, 1} plus
// 0.5*L2*||w||^2. Parameters are laid out as the p weights followed by
// the intercept when Intercept is set; the intercept is not penalised.
type LogisticLoss struct {
	X         [][]float64
	Y         []float64
	L2        float64
	Intercept bool
}

// Dim is the parameter count.
func (l *LogisticLoss) Dim() int {
	p := len(l.X[0])
	if l.Intercept {
		p++
	}
	return p
}

func (l *LogisticLoss) margin(w []float64, row []float64) float64 {
	m := 0.0
	for j, v := range row {
		m += w[j] * v
	}
	if l.Intercept {
		m += w[len(row)]
	}
	return m
}

// Func evaluates the objective at w.
func (l *LogisticLoss) Func(w []float64) float64 {
	s := 0.0
	for i, row := range l.X {
		m := l.margin(w, row)
		s += softplus(m) - l.Y[i]*m
	}
	s /= float64(len(l.X))
	p := len(l.X[0])
	for j := 0; j < p; j++ {
		s += 0.5 * l.L2 * w[j] * w[j]
	}
	return s
}

// Grad writes the gradient at w into grad.
func (l *LogisticLoss) Grad(grad, w []float64) {
	for j := range grad {
		grad[j] = 0
	}
	p := len(l.X[0])
	inv := 1 / float64(len(l.X))
	for i, row := range l.X {
		d := (Sigmoid(l.margin(w, row)) - l.Y[i]) * inv
		for j, v := range row {
			grad[j] += d * v
		}
		if l.Intercept {
			grad[p] += d
		}
	}
	for j := 0; j < p; j++ {
		grad[j] += l.L2 * w[j]
	}
}
