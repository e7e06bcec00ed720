package model

import (
	"math"
	"math/rand"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// RandomForestClassifier trains bagged decision trees, each on a bootstrap
// sample and with a random feature subset considered at every node.
type RandomForestClassifier struct {
	Columns

	NumTrees            int
	MaxDepth            int
	MinInstancesPerNode int
	Impurity            string
	// FeatureSubsetStrategy is auto (sqrt), all, sqrt, log2 or onethird.
	FeatureSubsetStrategy string
	SubsamplingRate       float64
	Bootstrap             bool
	Seed                  int64
	// Parallelism bounds concurrent tree fits; 0 uses GOMAXPROCS.
	Parallelism int
}

// RandomForestOption configures a RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

func WithNumTrees(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.NumTrees = n }
}
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.MaxDepth = d }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.Bootstrap = b }
}
func WithFeatureSubsetStrategy(s string) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.FeatureSubsetStrategy = s }
}
func WithForestSeed(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.Seed = seed }
}
func WithForestColumns(c Columns) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.Columns = c }
}

// NewRandomForest returns a forest of 20 depth-5 gini trees.
func NewRandomForest(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		NumTrees:              20,
		MaxDepth:              5,
		MinInstancesPerNode:   1,
		Impurity:              "gini",
		FeatureSubsetStrategy: "auto",
		SubsamplingRate:       1.0,
		Bootstrap:             true,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// subsetSize is the number of features each node considers.
func (rf *RandomForestClassifier) subsetSize(p int) (int, error) {
	var m float64
	switch rf.FeatureSubsetStrategy {
	case "", "auto", "sqrt":
		m = math.Sqrt(float64(p))
	case "all":
		return p, nil
	case "log2":
		m = math.Log2(float64(p))
	case "onethird":
		m = float64(p) / 3
	default:
		return 0, errors.Errorf("randomforest: unknown feature subset strategy %q", rf.FeatureSubsetStrategy)
	}
	return max(1, int(math.Ceil(m))), nil
}

func (rf *RandomForestClassifier) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return rf.FitForest(f)
}

// FitForest is Fit with the concrete model type. Trees are fitted
// concurrently; tree i is seeded with Seed+i so results do not depend on
// scheduling.
func (rf *RandomForestClassifier) FitForest(f *frame.Frame) (*RandomForestModel, error) {
	if rf.NumTrees < 1 {
		return nil, errors.Errorf("randomforest: need at least one tree, got %d", rf.NumTrees)
	}
	if rf.SubsamplingRate <= 0 || rf.SubsamplingRate > 1 {
		return nil, errors.Errorf("randomforest: subsampling rate %v outside (0, 1]", rf.SubsamplingRate)
	}
	cols := rf.Columns.withDefaults()
	ds, err := extract(f, cols)
	if err != nil {
		return nil, err
	}
	k, err := classCount(ds.y)
	if err != nil {
		return nil, err
	}
	m, err := rf.subsetSize(ds.p)
	if err != nil {
		return nil, err
	}

	n := len(ds.X)
	sample := max(1, int(math.Round(rf.SubsamplingRate*float64(n))))
	trees := make([]*DecisionTreeModel, rf.NumTrees)

	var g errgroup.Group
	limit := rf.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i := 0; i < rf.NumTrees; i++ {
		i := i
		g.Go(func() error {
			seed := rf.Seed + int64(i)
			treeRand := rand.New(rand.NewSource(seed))
			// Bootstrap sampling: an index slice, not a copy of the data.
			var idx []int
			if rf.Bootstrap {
				idx = make([]int, sample)
				for j := range idx {
					idx[j] = treeRand.Intn(n)
				}
			} else {
				idx = treeRand.Perm(n)[:sample]
			}
			tree := NewDecisionTreeClassifier(
				WithMaxDepth(rf.MaxDepth),
				WithMinInstancesPerNode(rf.MinInstancesPerNode),
				WithImpurity(rf.Impurity),
				WithTreeSeed(seed),
			)
			tree.maxFeatures = m
			if err := tree.validate(); err != nil {
				return err
			}
			trees[i] = tree.grow(ds, k, idx, cols)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	importances := make([]float64, ds.p)
	for _, t := range trees {
		for j, v := range t.importances {
			importances[j] += v
		}
	}
	return &RandomForestModel{
		cols:        cols,
		layout:      layout{p: ds.p, attrs: ds.attrs},
		numClasses:  k,
		trees:       trees,
		importances: normalize(importances),
	}, nil
}

// RandomForestModel is a fitted forest.
type RandomForestModel struct {
	cols        Columns
	layout      layout
	numClasses  int
	trees       []*DecisionTreeModel
	importances []float64
}

func (m *RandomForestModel) NumFeatures() int { return m.layout.p }
func (m *RandomForestModel) NumClasses() int  { return m.numClasses }

// Trees returns the fitted trees.
func (m *RandomForestModel) Trees() []*DecisionTreeModel {
	return append([]*DecisionTreeModel(nil), m.trees...)
}

// FeatureImportances averages the per-tree importances, normalised to sum to 1.
func (m *RandomForestModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}

// scoreRow sums the trees' leaf class distributions; the prediction is
// the class with the largest total.
func (m *RandomForestModel) scoreRow(x []float64) score {
	raw := make([]float64, m.numClasses)
	for _, t := range m.trees {
		for c, p := range normalize(t.leafFor(x).counts) {
			raw[c] += p
		}
	}
	return score{pred: float64(argmax(raw)), raw: raw, prob: normalize(raw)}
}

func (m *RandomForestModel) Predict(x *core.Vector) (float64, error) {
	if err := m.layout.check(x); err != nil {
		return 0, err
	}
	return m.scoreRow(x.ToDense()).pred, nil
}

func (m *RandomForestModel) PredictProbability(x *core.Vector) (*core.Vector, error) {
	if err := m.layout.check(x); err != nil {
		return nil, err
	}
	return core.Dense(m.scoreRow(x.ToDense()).prob), nil
}

func (m *RandomForestModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return transform(f, m.cols, m.layout, m.scoreRow)
}
