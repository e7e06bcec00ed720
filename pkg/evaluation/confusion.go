package evaluation

import (
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// Confusion holds binary outcome counts with 1 as the positive class.
type Confusion struct {
	TP, TN, FP, FN int
}

// Count tallies predictions against labels.
func Count(yTrue, yPred []float64) Confusion {
	var c Confusion
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			c.TP++
		case yPred[i] == 1:
			c.FP++
		case yTrue[i] == 1:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

func (c Confusion) Total() int { return c.TP + c.TN + c.FP + c.FN }

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (c Confusion) Accuracy() float64  { return ratio(c.TP+c.TN, c.Total()) }
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }
func (c Confusion) Recall() float64    { return ratio(c.TP, c.TP+c.FN) }

func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// ConfusionMatrix counts outcomes over the rows of f where both columns
// are non-null.
func ConfusionMatrix(f *frame.Frame, labelCol, predCol string) (Confusion, error) {
	y, p, err := pairs(f, labelCol, predCol)
	if err != nil {
		return Confusion{}, err
	}
	return Count(y, p), nil
}

// pairs returns the numeric values of two columns over rows where neither
// is null.
func pairs(f *frame.Frame, a, b string) ([]float64, []float64, error) {
	av, an, err := f.Floats(a)
	if err != nil {
		return nil, nil, err
	}
	bv, bn, err := f.Floats(b)
	if err != nil {
		return nil, nil, err
	}
	var x, y []float64
	for i := range av {
		if an[i] || bn[i] {
			continue
		}
		x = append(x, av[i])
		y = append(y, bv[i])
	}
	if len(x) == 0 {
		return nil, nil, errors.Wrapf(data.ErrEmptyDataset, "evaluation: no rows with both %q and %q", a, b)
	}
	return x, y, nil
}
