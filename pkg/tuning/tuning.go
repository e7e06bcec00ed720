// Package tuning selects estimator parameters by k-fold cross-validation.
package tuning

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// ParamMap is one point of a parameter grid.
type ParamMap map[string]any

// Float returns the named parameter as float64.
func (p ParamMap) Float(name string) (float64, error) {
	switch v := p[name].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, errors.Errorf("tuning: missing parameter %q", name)
	}
	return 0, errors.Errorf("tuning: parameter %q is %T, not numeric", name, p[name])
}

// Int returns the named parameter as int.
func (p ParamMap) Int(name string) (int, error) {
	v, err := p.Float(name)
	return int(v), err
}

func (p ParamMap) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParamGridBuilder builds the cartesian product of parameter values.
type ParamGridBuilder struct {
	names  []string
	values [][]any
}

func NewParamGridBuilder() *ParamGridBuilder { return &ParamGridBuilder{} }

// AddGrid adds a parameter and its candidate values.
func (b *ParamGridBuilder) AddGrid(name string, values ...any) *ParamGridBuilder {
	b.names = append(b.names, name)
	b.values = append(b.values, values)
	return b
}

// Build returns every combination, varying the last added parameter
// fastest. An empty builder yields one empty map.
func (b *ParamGridBuilder) Build() []ParamMap {
	grid := []ParamMap{{}}
	for i, name := range b.names {
		next := make([]ParamMap, 0, len(grid)*len(b.values[i]))
		for _, base := range grid {
			for _, v := range b.values[i] {
				pm := make(ParamMap, len(base)+1)
				for k, bv := range base {
					pm[k] = bv
				}
				pm[name] = v
				next = append(next, pm)
			}
		}
		grid = next
	}
	return grid
}

// EstimatorFactory builds a fresh estimator for one parameter map.
type EstimatorFactory func(ParamMap) (pipeline.Estimator, error)

// CrossValidator averages an evaluator's metric over k folds for every
// grid point, picks the best, and refits it on the whole frame.
type CrossValidator struct {
	Estimator EstimatorFactory
	Grid      []ParamMap
	Evaluator evaluation.Evaluator
	NumFolds  int
	Seed      int64
	// Parallelism bounds concurrent fold fits; 0 uses GOMAXPROCS.
	Parallelism int
	Logger      *zap.Logger
}

// CrossValidatorModel is the refitted best model with the scores that
// chose it.
type CrossValidatorModel struct {
	Best       pipeline.Transformer
	BestParams ParamMap
	AvgMetrics []float64 // aligned with the grid
	MetricName string
	BestIndex  int
	NumFolds   int
}

func (m *CrossValidatorModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	return m.Best.Transform(f)
}

// Fit runs the search. Folds are shared by all grid points.
func (cv *CrossValidator) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	return cv.FitCV(f)
}

// FitCV is Fit with the concrete model type.
func (cv *CrossValidator) FitCV(f *frame.Frame) (*CrossValidatorModel, error) {
	if cv.Estimator == nil || cv.Evaluator == nil {
		return nil, errors.New("tuning: estimator factory and evaluator are required")
	}
	grid := cv.Grid
	if len(grid) == 0 {
		grid = []ParamMap{{}}
	}
	k := cv.NumFolds
	if k == 0 {
		k = 3
	}
	logger := cv.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	folds, err := data.KFold(f, k, cv.Seed)
	if err != nil {
		return nil, err
	}

	metrics := make([][]float64, len(grid))
	for i := range metrics {
		metrics[i] = make([]float64, k)
	}
	var g errgroup.Group
	limit := cv.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, pm := range grid {
		i, pm := i, pm
		for j, fold := range folds {
			j, fold := j, fold
			g.Go(func() error {
				est, err := cv.Estimator(pm)
				if err != nil {
					return errors.Wrapf(err, "tuning: build %v", pm)
				}
				model, err := est.Fit(fold.Train)
				if err != nil {
					return errors.Wrapf(err, "tuning: fit %v fold %d", pm, j)
				}
				scored, err := model.Transform(fold.Test)
				if err != nil {
					return errors.Wrapf(err, "tuning: score %v fold %d", pm, j)
				}
				v, err := cv.Evaluator.Evaluate(scored)
				if err != nil {
					return errors.Wrapf(err, "tuning: evaluate %v fold %d", pm, j)
				}
				metrics[i][j] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avg := make([]float64, len(grid))
	best := 0
	for i, ms := range metrics {
		for _, v := range ms {
			avg[i] += v
		}
		avg[i] /= float64(k)
		logger.Debug("cross-validated candidate",
			zap.Stringer("params", grid[i]),
			zap.String("metric", cv.Evaluator.Name()),
			zap.Float64("avg", avg[i]))
		if better(avg[i], avg[best], cv.Evaluator.LargerBetter()) {
			best = i
		}
	}

	est, err := cv.Estimator(grid[best])
	if err != nil {
		return nil, err
	}
	model, err := est.Fit(f)
	if err != nil {
		return nil, errors.Wrap(err, "tuning: refit best")
	}
	logger.Info("cross-validation done",
		zap.Int("candidates", len(grid)),
		zap.Int("folds", k),
		zap.Stringer("best", grid[best]),
		zap.Float64(cv.Evaluator.Name(), avg[best]))
	return &CrossValidatorModel{
		Best:       model,
		BestParams: grid[best],
		AvgMetrics: avg,
		MetricName: cv.Evaluator.Name(),
		BestIndex:  best,
		NumFolds:   k,
	}, nil
}

func better(a, b float64, largerBetter bool) bool {
	if largerBetter {
		return a > b
	}
	return a < b
}
