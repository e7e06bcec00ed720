package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier over continuous
// features. Labels must be class indices 0..k-1.
type DecisionTreeClassifier struct {
	Columns

	MaxDepth            int     // root is depth 0; a depth-0 tree is a single leaf
	MinInstancesPerNode int     // minimum rows in each child of a split
	MinInfoGain         float64 // minimum impurity decrease to accept a split
	Impurity            string  // "gini" (default) or "entropy"
	Seed                int64

	// maxFeatures > 0 samples that many candidate features per node.
	maxFeatures int
}

// TreeOption configures a DecisionTreeClassifier.
type TreeOption func(*DecisionTreeClassifier)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinInstancesPerNode(n int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinInstancesPerNode = n }
}
func WithMinInfoGain(g float64) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinInfoGain = g }
}
func WithImpurity(name string) TreeOption {
	return func(t *DecisionTreeClassifier) { t.Impurity = name }
}
func WithTreeSeed(seed int64) TreeOption { return func(t *DecisionTreeClassifier) { t.Seed = seed } }
func WithTreeColumns(c Columns) TreeOption {
	return func(t *DecisionTreeClassifier) { t.Columns = c }
}

// NewDecisionTreeClassifier returns a classifier with depth 5, gini
// impurity and single-row leaves allowed.
func NewDecisionTreeClassifier(opts ...TreeOption) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		MaxDepth:            5,
		MinInstancesPerNode: 1,
		Impurity:            "gini",
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// treeNode holds a node in the tree. Rows with x[feature] <= threshold go left.
type treeNode struct {
	leaf      bool
	feature   int
	threshold float64
	gain      float64
	left      *treeNode
	right     *treeNode

	counts []float64 // class counts of training rows reaching the node
}

func (n *treeNode) size() float64 {
	s := 0.0
	for _, c := range n.counts {
		s += c
	}
	return s
}

// DecisionTreeModel is a fitted tree.
type DecisionTreeModel struct {
	cols        Columns
	layout      layout
	numClasses  int
	root        *treeNode
	importances []float64
}

// ---------------------------
// Fit
// ---------------------------

func (t *DecisionTreeClassifier) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return t.FitTree(f)
}

// FitTree is Fit with the concrete model type.
func (t *DecisionTreeClassifier) FitTree(f *frame.Frame) (*DecisionTreeModel, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	cols := t.Columns.withDefaults()
	ds, err := extract(f, cols)
	if err != nil {
		return nil, err
	}
	k, err := classCount(ds.y)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(ds.X))
	for i := range idx {
		idx[i] = i
	}
	return t.grow(ds, k, idx, cols), nil
}

func (t *DecisionTreeClassifier) validate() error {
	if t.MaxDepth < 0 {
		return errors.Errorf("dtree: negative max depth %d", t.MaxDepth)
	}
	if t.MinInstancesPerNode < 1 {
		return errors.Errorf("dtree: min instances per node must be >= 1, got %d", t.MinInstancesPerNode)
	}
	switch t.Impurity {
	case "", "gini", "entropy":
		return nil
	}
	return errors.Errorf("dtree: unknown impurity %q", t.Impurity)
}

// grow builds a tree over the rows in idx. idx may repeat rows, which
// is how bootstrap samples are weighted.
func (t *DecisionTreeClassifier) grow(ds *dataset, k int, idx []int, cols Columns) *DecisionTreeModel {
	b := &builder{
		t:        t,
		ds:       ds,
		k:        k,
		impurity: giniFromCounts,
		rnd:      rand.New(rand.NewSource(t.Seed)),
		gains:    make([]float64, ds.p),
	}
	if t.Impurity == "entropy" {
		b.impurity = entropyFromCounts
	}
	root := b.buildNode(idx, 0)
	return &DecisionTreeModel{
		cols:        cols,
		layout:      layout{p: ds.p, attrs: ds.attrs},
		numClasses:  k,
		root:        root,
		importances: normalize(b.gains),
	}
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

type builder struct {
	t        *DecisionTreeClassifier
	ds       *dataset
	k        int
	impurity func([]float64) float64
	rnd      *rand.Rand
	gains    []float64 // weighted impurity decrease per feature
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

// pair is a feature value and its row.
type pair struct {
	v float64
	i int
}

// parallelSplitRows is the node size above which features are searched concurrently.
const parallelSplitRows = 256

func (b *builder) buildNode(idx []int, depth int) *treeNode {
	node := &treeNode{counts: b.countsOf(idx)}
	if depth >= b.t.MaxDepth || isPure(node.counts) || len(idx) < 2*b.t.MinInstancesPerNode {
		node.leaf = true
		return node
	}

	features := b.candidateFeatures()
	parent := b.impurity(node.counts)
	results := make([]splitResult, len(features))
	if len(idx) >= parallelSplitRows {
		var wg sync.WaitGroup
		for r, f := range features {
			wg.Add(1)
			go func(r, f int) {
				defer wg.Done()
				results[r] = b.bestSplitForFeature(idx, f, parent)
			}(r, f)
		}
		wg.Wait()
	} else {
		for r, f := range features {
			results[r] = b.bestSplitForFeature(idx, f, parent)
		}
	}

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature < 0 {
			continue
		}
		if best.feature < 0 || r.gain > best.gain || (r.gain == best.gain && r.feature < best.feature) {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= 0 || best.gain < b.t.MinInfoGain {
		node.leaf = true
		return node
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.gain = best.gain
	b.gains[best.feature] += best.gain * float64(len(idx))
	node.left = b.buildNode(best.leftIdx, depth+1)
	node.right = b.buildNode(best.rightIdx, depth+1)
	return node
}

// candidateFeatures returns every feature, or a random subset when the
// classifier samples features per node.
func (b *builder) candidateFeatures() []int {
	p := b.ds.p
	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	m := b.t.maxFeatures
	if m <= 0 || m >= p {
		return feats
	}
	for i := 0; i < m; i++ {
		j := i + b.rnd.Intn(p-i)
		feats[i], feats[j] = feats[j], feats[i]
	}
	feats = feats[:m]
	sort.Ints(feats)
	return feats
}

// bestSplitForFeature scans the sorted values of one feature once, moving
// rows from the right child to the left and scoring every boundary between
// distinct values.
func (b *builder) bestSplitForFeature(idx []int, f int, parent float64) splitResult {
	result := splitResult{feature: -1}
	pairs := make([]pair, len(idx))
	for r, i := range idx {
		pairs[r] = pair{b.ds.X[i][f], i}
	}
	sort.Slice(pairs, func(a, c int) bool { return pairs[a].v < pairs[c].v })

	n := float64(len(pairs))
	left := make([]float64, b.k)
	right := b.countsOf(idx)
	minInst := b.t.MinInstancesPerNode
	bestAt := -1
	for s := 1; s < len(pairs); s++ {
		c := int(b.ds.y[pairs[s-1].i])
		left[c]++
		right[c]--
		if pairs[s].v == pairs[s-1].v || s < minInst || len(pairs)-s < minInst {
			continue
		}
		nl := float64(s)
		weighted := nl/n*b.impurity(left) + (n-nl)/n*b.impurity(right)
		if gain := parent - weighted; bestAt < 0 || gain > result.gain {
			result.gain = gain
			result.threshold = (pairs[s-1].v + pairs[s].v) / 2
			bestAt = s
		}
	}
	if bestAt < 0 {
		return result
	}
	result.feature = f
	result.leftIdx = indicesFromPairs(pairs[:bestAt])
	result.rightIdx = indicesFromPairs(pairs[bestAt:])
	return result
}

func (b *builder) countsOf(idx []int) []float64 {
	counts := make([]float64, b.k)
	for _, i := range idx {
		counts[int(b.ds.y[i])]++
	}
	return counts
}

func indicesFromPairs(pairs []pair) []int {
	out := make([]int, len(pairs))
	for r, p := range pairs {
		out[r] = p.i
	}
	return out
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []float64) float64 {
	n := 0.0
	for _, c := range counts {
		n += c
	}
	if n == 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := c / n
		res -= p * p
	}
	return res
}

func entropyFromCounts(counts []float64) float64 {
	n := 0.0
	for _, c := range counts {
		n += c
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// ---------------------------
// Model API
// ---------------------------

func (m *DecisionTreeModel) NumFeatures() int { return m.layout.p }
func (m *DecisionTreeModel) NumClasses() int  { return m.numClasses }

// FeatureImportances is each feature's share of the total weighted
// impurity decrease. It sums to 1 unless the tree is a single leaf.
func (m *DecisionTreeModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}

// Depth is the length of the longest root-to-leaf path.
func (m *DecisionTreeModel) Depth() int { return depthOf(m.root) }

// NumNodes counts internal nodes and leaves.
func (m *DecisionTreeModel) NumNodes() int { return countNodes(m.root) }

func depthOf(n *treeNode) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depthOf(n.left), depthOf(n.right))
}

func countNodes(n *treeNode) int {
	if n == nil {
		return 0
	}
	return 1 + countNodes(n.left) + countNodes(n.right)
}

func (m *DecisionTreeModel) leafFor(x []float64) *treeNode {
	node := m.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

func (m *DecisionTreeModel) scoreRow(x []float64) score {
	leaf := m.leafFor(x)
	raw := append([]float64(nil), leaf.counts...)
	return score{pred: float64(argmax(raw)), raw: raw, prob: normalize(raw)}
}

func (m *DecisionTreeModel) Predict(x *core.Vector) (float64, error) {
	if err := m.layout.check(x); err != nil {
		return 0, err
	}
	return m.scoreRow(x.ToDense()).pred, nil
}

func (m *DecisionTreeModel) PredictProbability(x *core.Vector) (*core.Vector, error) {
	if err := m.layout.check(x); err != nil {
		return nil, err
	}
	return core.Dense(m.scoreRow(x.ToDense()).prob), nil
}

// Transform appends rawPrediction (leaf class counts), probability and
// prediction columns.
func (m *DecisionTreeModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return transform(f, m.cols, m.layout, m.scoreRow)
}

// DebugString renders the tree as nested if/else rules.
func (m *DecisionTreeModel) DebugString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DecisionTreeModel: depth %d with %d nodes\n", m.Depth(), m.NumNodes())
	m.writeNode(&sb, m.root, 1)
	return sb.String()
}

func (m *DecisionTreeModel) featureName(j int) string {
	if j < len(m.layout.attrs) {
		return m.layout.attrs[j]
	}
	return fmt.Sprintf("feature %d", j)
}

func (m *DecisionTreeModel) writeNode(sb *strings.Builder, n *treeNode, indent int) {
	pad := strings.Repeat("  ", indent)
	if n.leaf {
		fmt.Fprintf(sb, "%sPredict: %d\n", pad, argmax(n.counts))
		return
	}
	fmt.Fprintf(sb, "%sIf (%s <= %g)\n", pad, m.featureName(n.feature), n.threshold)
	m.writeNode(sb, n.left, indent+1)
	fmt.Fprintf(sb, "%sElse (%s > %g)\n", pad, m.featureName(n.feature), n.threshold)
	m.writeNode(sb, n.right, indent+1)
}

// ---------------------------
// Reduced-error pruning
// ---------------------------

// Prune returns a copy of the tree in which every internal node whose two
// children are leaves is collapsed when doing so does not lower accuracy on
// the validation frame, and the number of nodes collapsed.
func (m *DecisionTreeModel) Prune(validation *frame.Frame) (*DecisionTreeModel, int, error) {
	ds, err := extract(validation, m.cols)
	if err != nil {
		return nil, 0, err
	}
	if ds.p != m.layout.p {
		return nil, 0, errors.Wrapf(ErrFeatureMismatch, "validation has %d features, model expects %d", ds.p, m.layout.p)
	}
	cp := *m
	cp.root = copyNode(m.root)
	baseline := cp.accuracy(ds)
	pruned := cp.pruneNode(cp.root, ds, &baseline)
	return &cp, pruned, nil
}

func copyNode(n *treeNode) *treeNode {
	if n == nil {
		return nil
	}
	c := *n
	c.counts = append([]float64(nil), n.counts...)
	c.left = copyNode(n.left)
	c.right = copyNode(n.right)
	return &c
}

func (m *DecisionTreeModel) accuracy(ds *dataset) float64 {
	hit := 0
	for i, x := range ds.X {
		if m.scoreRow(x).pred == ds.y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(ds.X))
}

// pruneNode works bottom-up so collapsed children can make their parent
// eligible in the same pass.
func (m *DecisionTreeModel) pruneNode(node *treeNode, ds *dataset, baseline *float64) int {
	if node == nil || node.leaf {
		return 0
	}
	pruned := m.pruneNode(node.left, ds, baseline) + m.pruneNode(node.right, ds, baseline)
	if !node.left.leaf || !node.right.leaf {
		return pruned
	}
	left, right := node.left, node.right
	node.leaf, node.left, node.right = true, nil, nil
	if acc := m.accuracy(ds); acc >= *baseline {
		*baseline = acc
		return pruned + 1
	}
	node.leaf, node.left, node.right = false, left, right
	return pruned
}
