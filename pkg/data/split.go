package data

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// ErrEmptyDataset is returned where an operation is undefined on zero rows.
var ErrEmptyDataset = errors.New("data: empty dataset")

// RandomSplit assigns every row independently to one partition with
// probability proportional to its weight. Partitions are disjoint, cover
// every row, keep input order and are identical for a fixed seed. Sizes
// are only approximately proportional to the weights.
func RandomSplit(f *frame.Frame, weights []float64, seed int64) ([]*frame.Frame, error) {
	if len(weights) == 0 {
		return nil, errors.New("data: no split weights")
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, errors.Errorf("data: negative split weight %v", w)
		}
		total += w
	}
	if total <= 0 {
		return nil, errors.New("data: split weights sum to zero")
	}
	bounds := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		acc += w / total
		bounds[i] = acc
	}
	bounds[len(bounds)-1] = 1

	rnd := rand.New(rand.NewSource(seed))
	parts := make([][]int, len(weights))
	for i := 0; i < f.Count(); i++ {
		u := rnd.Float64()
		for p, b := range bounds {
			if u < b {
				parts[p] = append(parts[p], i)
				break
			}
		}
	}
	out := make([]*frame.Frame, len(parts))
	for p, rows := range parts {
		part, err := f.Subset(rows)
		if err != nil {
			return nil, err
		}
		out[p] = part
	}
	return out, nil
}

// TrainTestSplit is RandomSplit with weights {trainRatio, 1-trainRatio}.
func TrainTestSplit(f *frame.Frame, trainRatio float64, seed int64) (train, test *frame.Frame, err error) {
	if trainRatio <= 0 || trainRatio >= 1 {
		return nil, nil, errors.Errorf("data: train ratio %v outside (0, 1)", trainRatio)
	}
	parts, err := RandomSplit(f, []float64{trainRatio, 1 - trainRatio}, seed)
	if err != nil {
		return nil, nil, err
	}
	return parts[0], parts[1], nil
}

// Shuffle returns the rows in a seeded random order.
func Shuffle(f *frame.Frame, seed int64) (*frame.Frame, error) {
	rnd := rand.New(rand.NewSource(seed))
	return f.Subset(rnd.Perm(f.Count()))
}

// Fold is one train/validation pair of a k-fold split.
type Fold struct {
	Train *frame.Frame
	Test  *frame.Frame
}

// KFold deals a seeded permutation of the rows round-robin into k test
// folds; each fold trains on the remaining rows.
func KFold(f *frame.Frame, k int, seed int64) ([]Fold, error) {
	n := f.Count()
	if k < 2 {
		return nil, errors.Errorf("data: k-fold needs k >= 2, got %d", k)
	}
	if n < k {
		return nil, errors.Errorf("data: %d rows cannot fill %d folds", n, k)
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	assign := make([]int, n)
	for i := 0; i < n; i++ {
		assign[indices[i]] = i % k
	}
	folds := make([]Fold, k)
	for fold := 0; fold < k; fold++ {
		var train, test []int
		for row := 0; row < n; row++ {
			if assign[row] == fold {
				test = append(test, row)
			} else {
				train = append(train, row)
			}
		}
		var err error
		if folds[fold].Train, err = f.Subset(train); err != nil {
			return nil, err
		}
		if folds[fold].Test, err = f.Subset(test); err != nil {
			return nil, err
		}
	}
	return folds, nil
}

// Ratio is part/whole with the empty denominator made explicit.
func Ratio(part, whole int) (float64, error) {
	if whole == 0 {
		return 0, ErrEmptyDataset
	}
	return float64(part) / float64(whole), nil
}
