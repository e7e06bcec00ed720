package stats

import "math"

// Moments holds per-column mean and sample standard deviation.
type Moments struct {
	Mean []float64
	Std  []float64
}

// ColumnMoments computes the mean and sample standard deviation of every
// column of X in a single pass per column. Rows must share one length.
func ColumnMoments(X [][]float64) Moments {
	if len(X) == 0 {
		return Moments{}
	}
	r, c := len(X), len(X[0])
	m := Moments{Mean: make([]float64, c), Std: make([]float64, c)}
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			m.Mean[j] += X[i][j]
		}
		m.Mean[j] /= float64(r)
		if r < 2 {
			continue
		}
		v := 0.0
		for i := 0; i < r; i++ {
			d := X[i][j] - m.Mean[j]
			v += d * d
		}
		m.Std[j] = math.Sqrt(v / float64(r-1))
	}
	return m
}

// Standardize returns (x - mean) / std per column when the flags ask for
// it. Columns with zero spread are left centred but unscaled.
func (m Moments) Standardize(x []float64, withMean, withStd bool) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if withMean {
			v -= m.Mean[j]
		}
		if withStd && m.Std[j] != 0 {
			v /= m.Std[j]
		}
		out[j] = v
	}
	return out
}
