// Package model implements the supervised learners: decision tree and
// random forest classifiers, logistic regression and linear regression.
// Estimators read a vector features column and a numeric label column and
// return fitted models that append prediction columns.
package model

import (
	"math"

	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// Default column names.
const (
	FeaturesCol      = "features"
	LabelCol         = "label"
	PredictionCol    = "prediction"
	ProbabilityCol   = "probability"
	RawPredictionCol = "rawPrediction"
)

// ErrFeatureMismatch is returned when a feature vector does not match the
// layout a model was trained on.
var ErrFeatureMismatch = errors.New("model: feature vector mismatch")

// Model is a fitted learner.
type Model interface {
	pipeline.Transformer
	// Predict scores a single feature vector.
	Predict(x *core.Vector) (float64, error)
	// NumFeatures is the feature vector length seen at fit time.
	NumFeatures() int
}

// Classifier is a Model that also yields class probabilities.
type Classifier interface {
	Model
	NumClasses() int
	PredictProbability(x *core.Vector) (*core.Vector, error)
}

// Columns names the columns a learner reads and writes. Empty fields take
// the package defaults.
type Columns struct {
	Features      string
	Label         string
	Prediction    string
	Probability   string
	RawPrediction string
}

func (c Columns) withDefaults() Columns {
	if c.Features == "" {
		c.Features = FeaturesCol
	}
	if c.Label == "" {
		c.Label = LabelCol
	}
	if c.Prediction == "" {
		c.Prediction = PredictionCol
	}
	if c.Probability == "" {
		c.Probability = ProbabilityCol
	}
	if c.RawPrediction == "" {
		c.RawPrediction = RawPredictionCol
	}
	return c
}

// ---------------------------
// Training data
// ---------------------------

// dataset is the dense design matrix extracted from a frame.
type dataset struct {
	X     [][]float64
	y     []float64
	attrs []string
	p     int
}

func extract(f *frame.Frame, cols Columns) (*dataset, error) {
	if f.Count() == 0 {
		return nil, errors.Wrap(data.ErrEmptyDataset, "model: fit")
	}
	vecs, err := f.Vectors(cols.Features)
	if err != nil {
		return nil, err
	}
	labels, nulls, err := f.Floats(cols.Label)
	if err != nil {
		return nil, err
	}
	ds := &dataset{X: make([][]float64, len(vecs)), y: labels, attrs: f.Attrs(cols.Features), p: -1}
	for i, v := range vecs {
		if v == nil {
			return nil, errors.Errorf("model: null feature vector in row %d", i)
		}
		if nulls[i] || math.IsNaN(labels[i]) {
			return nil, errors.Errorf("model: null label in row %d", i)
		}
		if ds.p < 0 {
			ds.p = v.Len()
		}
		if v.Len() != ds.p {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d features, want %d", i, v.Len(), ds.p)
		}
		if v.HasNaN() {
			return nil, errors.Errorf("model: NaN feature in row %d", i)
		}
		ds.X[i] = v.ToDense()
	}
	if ds.p == 0 {
		return nil, errors.New("model: zero-length feature vectors")
	}
	return ds, nil
}

// classCount validates integer labels >= 0 and returns max label + 1.
func classCount(y []float64) (int, error) {
	k := 0
	for i, v := range y {
		if v < 0 || v != math.Trunc(v) {
			return 0, errors.Errorf("model: label %v in row %d is not a class index", v, i)
		}
		if int(v)+1 > k {
			k = int(v) + 1
		}
	}
	return k, nil
}

// ---------------------------
// Scoring
// ---------------------------

// layout is the feature contract a fitted model enforces.
type layout struct {
	p     int
	attrs []string
}

func (l layout) check(x *core.Vector) error {
	if x == nil {
		return errors.Wrap(ErrFeatureMismatch, "null feature vector")
	}
	if x.Len() != l.p {
		return errors.Wrapf(ErrFeatureMismatch, "got %d features, model expects %d", x.Len(), l.p)
	}
	if x.HasNaN() {
		return errors.Wrap(ErrFeatureMismatch, "NaN feature")
	}
	return nil
}

func (l layout) checkAttrs(attrs []string) error {
	if len(l.attrs) == 0 || len(attrs) == 0 {
		return nil
	}
	if len(attrs) != len(l.attrs) {
		return errors.Wrapf(ErrFeatureMismatch, "got %d feature slots, model expects %d", len(attrs), len(l.attrs))
	}
	for i := range attrs {
		if attrs[i] != l.attrs[i] {
			return errors.Wrapf(ErrFeatureMismatch, "slot %d is %q, model expects %q", i, attrs[i], l.attrs[i])
		}
	}
	return nil
}

// score is one row's output. raw and prob are nil for regressors.
type score struct {
	pred      float64
	raw, prob []float64
}

// transform scores every row of f and appends the output columns.
func transform(f *frame.Frame, cols Columns, l layout, fn func(x []float64) score) (*frame.Frame, error) {
	vecs, err := f.Vectors(cols.Features)
	if err != nil {
		return nil, err
	}
	if err := l.checkAttrs(f.Attrs(cols.Features)); err != nil {
		return nil, err
	}
	n := len(vecs)
	preds := make([]float64, n)
	nulls := make([]bool, n)
	var raws, probs []*core.Vector
	for i, v := range vecs {
		if v == nil {
			nulls[i] = true
			continue
		}
		if err := l.check(v); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		s := fn(v.ToDense())
		preds[i] = s.pred
		if s.raw != nil {
			if raws == nil {
				raws, probs = make([]*core.Vector, n), make([]*core.Vector, n)
			}
			raws[i] = core.Dense(s.raw)
			probs[i] = core.Dense(s.prob)
		}
	}
	g := f
	if raws != nil {
		if g, err = g.WithVectors(cols.RawPrediction, nil, raws); err != nil {
			return nil, err
		}
		if g, err = g.WithVectors(cols.Probability, nil, probs); err != nil {
			return nil, err
		}
	}
	return g.WithFloats(cols.Prediction, preds, nulls)
}

func argmax(x []float64) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

func normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	if sum == 0 {
		return out
	}
	for i, v := range x {
		out[i] = v / sum
	}
	return out
}
