// Package stats wraps github.com/montanaflynn/stats with the conventions the
// rest of the module relies on: empty input yields NaN instead of an error,
// and NaN inputs are treated as missing and skipped.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// present drops NaN values.
func present(x []float64) mstats.Float64Data {
	out := make(mstats.Float64Data, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

// Mean computes the average of the non-missing values.
func Mean(x []float64) float64 { return orNaN(mstats.Mean(present(x))) }

// Median returns the median of the non-missing values.
func Median(x []float64) float64 { return orNaN(mstats.Median(present(x))) }

// Mode returns the most frequent value; ties go to the smallest value.
func Mode(x []float64) float64 {
	data := present(x)
	if len(data) == 0 {
		return math.NaN()
	}
	modes, err := mstats.Mode(data)
	if err != nil {
		return math.NaN()
	}
	if len(modes) == 0 {
		// every value occurs once
		return orNaN(mstats.Min(data))
	}
	return modes[0]
}

// StdDev is the sample standard deviation (n-1 denominator). A single
// value has zero spread.
func StdDev(x []float64) float64 {
	data := present(x)
	if len(data) == 1 {
		return 0
	}
	return orNaN(mstats.StandardDeviationSample(data))
}

// MinMax returns the minimum and maximum values.
func MinMax(x []float64) (float64, float64) {
	data := present(x)
	return orNaN(mstats.Min(data)), orNaN(mstats.Max(data))
}

// Percentile returns the p-th percentile (0 < p <= 100).
func Percentile(x []float64, p float64) float64 {
	return orNaN(mstats.Percentile(present(x), p))
}

// Summary is the describe() row set for one column.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes count, mean, sample stddev, min and max in one call.
func Summarize(x []float64) Summary {
	data := present(x)
	s := Summary{Count: len(data), Mean: Mean(data), StdDev: StdDev(data)}
	s.Min, s.Max = MinMax(data)
	return s
}
