package model

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// KMeans partitions feature vectors into K clusters with Lloyd's
// algorithm from a k-means++ start. Only the features and prediction
// columns are used.
type KMeans struct {
	Columns

	K       int
	MaxIter int
	// Tol stops iterating once no center moves farther than this.
	Tol  float64
	Seed int64
}

// NewKMeans returns a k-cluster model capped at 20 iterations.
func NewKMeans(k int) *KMeans {
	return &KMeans{K: k, MaxIter: 20, Tol: 1e-4}
}

// KMeansModel is a fitted clustering.
type KMeansModel struct {
	cols       Columns
	layout     layout
	centers    [][]float64
	cost       float64
	iterations int
}

func (km *KMeans) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return km.FitKMeans(f)
}

// FitKMeans is Fit with the concrete model type.
func (km *KMeans) FitKMeans(f *frame.Frame) (*KMeansModel, error) {
	if km.K < 2 {
		return nil, errors.Errorf("kmeans: k must be >= 2, got %d", km.K)
	}
	if km.MaxIter < 1 {
		return nil, errors.Errorf("kmeans: max iterations must be >= 1, got %d", km.MaxIter)
	}
	cols := km.Columns.withDefaults()
	X, p, err := unlabeled(f, cols.Features)
	if err != nil {
		return nil, err
	}
	if len(X) < km.K {
		return nil, errors.Errorf("kmeans: %d rows cannot form %d clusters", len(X), km.K)
	}

	m := &KMeansModel{
		cols:    cols,
		layout:  layout{p: p, attrs: f.Attrs(cols.Features)},
		centers: initCenters(X, km.K, rand.New(rand.NewSource(km.Seed))),
	}
	assign := make([]int, len(X))
	for it := 1; it <= km.MaxIter; it++ {
		m.iterations = it
		m.assignAll(X, assign)

		sums := make([][]float64, km.K)
		counts := make([]int, km.K)
		for k := range sums {
			sums[k] = make([]float64, p)
		}
		for i, x := range X {
			k := assign[i]
			counts[k]++
			for j, v := range x {
				sums[k][j] += v
			}
		}
		moved := 0.0
		for k := range sums {
			// an empty cluster keeps its center
			if counts[k] == 0 {
				continue
			}
			for j := range sums[k] {
				sums[k][j] /= float64(counts[k])
			}
			moved = math.Max(moved, math.Sqrt(euclidSquared(sums[k], m.centers[k])))
			m.centers[k] = sums[k]
		}
		if moved <= km.Tol {
			break
		}
	}
	m.assignAll(X, assign)
	for i, x := range X {
		m.cost += euclidSquared(x, m.centers[assign[i]])
	}
	return m, nil
}

// unlabeled reads a features column without requiring a label.
func unlabeled(f *frame.Frame, col string) ([][]float64, int, error) {
	if f.Count() == 0 {
		return nil, 0, errors.New("kmeans: empty dataset")
	}
	vecs, err := f.Vectors(col)
	if err != nil {
		return nil, 0, err
	}
	X := make([][]float64, len(vecs))
	p := -1
	for i, v := range vecs {
		if v == nil || v.HasNaN() {
			return nil, 0, errors.Errorf("kmeans: null or NaN features in row %d", i)
		}
		if p < 0 {
			p = v.Len()
		}
		if v.Len() != p {
			return nil, 0, errors.Wrapf(ErrFeatureMismatch, "row %d has %d features, want %d", i, v.Len(), p)
		}
		X[i] = v.ToDense()
	}
	return X, p, nil
}

// initCenters is k-means++: each further center is drawn with probability
// proportional to its squared distance from the nearest chosen center.
func initCenters(X [][]float64, k int, rnd *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), X[rnd.Intn(len(X))]...))
	distSq := make([]float64, len(X))
	for len(centers) < k {
		total := 0.0
		for i, x := range X {
			minDist := math.MaxFloat64
			for _, c := range centers {
				minDist = math.Min(minDist, euclidSquared(x, c))
			}
			distSq[i] = minDist
			total += minDist
		}
		pick := len(X) - 1
		r := rnd.Float64() * total
		cumulative := 0.0
		for i, d2 := range distSq {
			cumulative += d2
			if cumulative >= r && d2 > 0 {
				pick = i
				break
			}
		}
		centers = append(centers, append([]float64(nil), X[pick]...))
	}
	return centers
}

// assignAll writes the nearest center of every row into assign, splitting
// rows across GOMAXPROCS workers.
func (m *KMeansModel) assignAll(X [][]float64, assign []int) {
	n := len(X)
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				assign[i] = m.nearest(X[i])
			}
		}(start, end)
	}
	wg.Wait()
}

func (m *KMeansModel) nearest(x []float64) int {
	best, bestDist := 0, math.MaxFloat64
	for k, c := range m.centers {
		if d := euclidSquared(x, c); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func euclidSquared(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func (m *KMeansModel) NumFeatures() int { return m.layout.p }

// ClusterCenters returns a copy of the fitted centers.
func (m *KMeansModel) ClusterCenters() []*core.Vector {
	out := make([]*core.Vector, len(m.centers))
	for k, c := range m.centers {
		out[k] = core.Dense(c)
	}
	return out
}

// TrainingCost is the within-cluster sum of squared distances.
func (m *KMeansModel) TrainingCost() float64 { return m.cost }
func (m *KMeansModel) Iterations() int       { return m.iterations }

func (m *KMeansModel) Predict(x *core.Vector) (float64, error) {
	if err := m.layout.check(x); err != nil {
		return 0, err
	}
	return float64(m.nearest(x.ToDense())), nil
}

// Transform appends the cluster index as the prediction column.
func (m *KMeansModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return transform(f, m.cols, m.layout, func(x []float64) score {
		return score{pred: float64(m.nearest(x))}
	})
}
