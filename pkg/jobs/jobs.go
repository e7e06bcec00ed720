// Package jobs holds the end-to-end workflows: load a dataset through the
// session, derive columns, build features, fit a model and score it.
// Each job returns a report struct and leaves printing to the caller.
package jobs

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/model"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/session"
)

// Runner runs jobs against one session and configuration.
type Runner struct {
	s      *session.Session
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner binds a session and a validated configuration.
func NewRunner(s *session.Session, cfg *config.Config) *Runner {
	return &Runner{s: s, cfg: cfg, logger: s.Logger().Named("jobs")}
}

// ClassificationReport is the outcome of a binary classifier scored on a
// held-out test set.
type ClassificationReport struct {
	Model     string
	TrainRows int
	TestRows  int
	// TrainShare is TrainRows over all rows that reached the split.
	TrainShare float64
	Confusion  evaluation.Confusion
	AUC        float64
	// Scores and Labels are the test rows' positive-class probabilities
	// and true classes, kept for ROC plotting.
	Scores []float64
	Labels []bool
}

// Metrics flattens the report for tabular output.
func (r *ClassificationReport) Metrics() map[string]float64 {
	return map[string]float64{
		"accuracy":  r.Confusion.Accuracy(),
		"precision": r.Confusion.Precision(),
		"recall":    r.Confusion.Recall(),
		"f1":        r.Confusion.F1(),
		"auc":       r.AUC,
	}
}

// classifier builds the estimator the configuration asks for.
func (r *Runner) classifier() (pipeline.Estimator, error) {
	m := r.cfg.Model
	switch m.Kind {
	case "tree":
		return model.NewDecisionTreeClassifier(
			model.WithMaxDepth(m.MaxDepth),
			model.WithTreeSeed(r.cfg.Split.Seed),
		), nil
	case "forest":
		return model.NewRandomForest(
			model.WithNumTrees(m.NumTrees),
			model.WithForestMaxDepth(m.MaxDepth),
			model.WithForestSeed(r.cfg.Split.Seed),
		), nil
	case "logistic":
		lr := model.NewLogisticRegression()
		lr.RegParam = m.RegParam
		lr.MaxIter = m.MaxIter
		lr.Threshold = m.Threshold
		return lr, nil
	}
	return nil, errors.Errorf("jobs: unknown model kind %q", m.Kind)
}

// classify splits f, fits est on the training part and scores the rest.
func (r *Runner) classify(f *frame.Frame, est pipeline.Estimator, name string) (*ClassificationReport, error) {
	train, test, err := data.TrainTestSplit(f, r.cfg.Split.TrainRatio, r.cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	share, err := data.Ratio(train.Count(), f.Count())
	if err != nil {
		return nil, err
	}
	r.logger.Info("split",
		zap.Int("train", train.Count()),
		zap.Int("test", test.Count()),
		zap.Float64("share", share))

	var fitted pipeline.Transformer
	err = r.s.Do("fit "+name, func() error {
		var err error
		fitted, err = est.Fit(train)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "jobs: fit %s", name)
	}
	scored, err := fitted.Transform(test)
	if err != nil {
		return nil, errors.Wrapf(err, "jobs: score %s", name)
	}
	return r.evaluate(scored, name, train.Count(), share)
}

func (r *Runner) evaluate(scored *frame.Frame, name string, trainRows int, share float64) (*ClassificationReport, error) {
	cm, err := evaluation.ConfusionMatrix(scored, model.LabelCol, model.PredictionCol)
	if err != nil {
		return nil, err
	}
	auc, err := (&evaluation.BinaryClassificationEvaluator{RawPredictionCol: model.ProbabilityCol}).Evaluate(scored)
	if err != nil {
		return nil, err
	}
	scores, labels, err := positiveScores(scored)
	if err != nil {
		return nil, err
	}
	rep := &ClassificationReport{
		Model:      name,
		TrainRows:  trainRows,
		TestRows:   scored.Count(),
		TrainShare: share,
		Confusion:  cm,
		AUC:        auc,
		Scores:     scores,
		Labels:     labels,
	}
	r.logger.Info("scored",
		zap.String("model", name),
		zap.Float64("accuracy", cm.Accuracy()),
		zap.Float64("auc", auc))
	return rep, nil
}

// positiveScores reads P(label=1) and the true class of every scored row.
func positiveScores(scored *frame.Frame) ([]float64, []bool, error) {
	probs, err := scored.Vectors(model.ProbabilityCol)
	if err != nil {
		return nil, nil, err
	}
	labels, nulls, err := scored.Floats(model.LabelCol)
	if err != nil {
		return nil, nil, err
	}
	var s []float64
	var l []bool
	for i, p := range probs {
		if p == nil || nulls[i] || p.Len() < 2 {
			continue
		}
		s = append(s, p.At(1))
		l = append(l, labels[i] == 1)
	}
	return s, l, nil
}

func fittedModel(t pipeline.Transformer) (*pipeline.Model, error) {
	m, ok := t.(*pipeline.Model)
	if !ok {
		return nil, errors.Errorf("jobs: expected a fitted pipeline, got %T", t)
	}
	return m, nil
}
