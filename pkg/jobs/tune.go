package jobs

import (
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
	"github.com/MarinaBorodkina/SPARK/pkg/model"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
	"github.com/MarinaBorodkina/SPARK/pkg/tuning"
)

const regParamName = "regParam"

// TuneReport lists the cross-validated AUC of every candidate and the
// test-set performance of the refitted winner.
type TuneReport struct {
	RegParams    []float64
	AvgAUC       []float64
	BestRegParam float64
	NumFolds     int
	Test         *ClassificationReport
}

func logisticFactory(maxIter int) tuning.EstimatorFactory {
	return func(pm tuning.ParamMap) (pipeline.Estimator, error) {
		reg, err := pm.Float(regParamName)
		if err != nil {
			return nil, err
		}
		lr := model.NewLogisticRegression()
		lr.RegParam = reg
		lr.MaxIter = maxIter
		return lr, nil
	}
}

// TuneFlightDelay picks the logistic regression penalty for the delay
// problem by k-fold cross-validation on the training split, then scores
// the refitted model on the test split.
func (r *Runner) TuneFlightDelay() (*TuneReport, error) {
	f, err := r.delayFrame()
	if err != nil {
		return nil, err
	}
	train, test, err := data.TrainTestSplit(f, r.cfg.Split.TrainRatio, r.cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	share, err := data.Ratio(train.Count(), f.Count())
	if err != nil {
		return nil, err
	}

	values := make([]any, len(r.cfg.CV.RegParams))
	for i, v := range r.cfg.CV.RegParams {
		values[i] = v
	}
	par := r.cfg.CV.Parallelism
	if par == 0 {
		par = r.s.Parallelism()
	}
	cv := &tuning.CrossValidator{
		Estimator:   logisticFactory(r.cfg.Model.MaxIter),
		Grid:        tuning.NewParamGridBuilder().AddGrid(regParamName, values...).Build(),
		Evaluator:   &evaluation.BinaryClassificationEvaluator{RawPredictionCol: model.ProbabilityCol},
		NumFolds:    r.cfg.CV.NumFolds,
		Seed:        r.cfg.Split.Seed,
		Parallelism: par,
		Logger:      r.logger,
	}
	var cvm *tuning.CrossValidatorModel
	err = r.s.Do("cross-validate", func() error {
		var err error
		cvm, err = cv.FitCV(train)
		return err
	})
	if err != nil {
		return nil, err
	}
	best, err := cvm.BestParams.Float(regParamName)
	if err != nil {
		return nil, err
	}
	scored, err := cvm.Transform(test)
	if err != nil {
		return nil, err
	}
	rep, err := r.evaluate(scored, "tuned logistic", train.Count(), share)
	if err != nil {
		return nil, err
	}
	r.logger.Info("tuned", zap.Float64("regParam", best), zap.Float64("testAUC", rep.AUC))
	return &TuneReport{
		RegParams:    append([]float64(nil), r.cfg.CV.RegParams...),
		AvgAUC:       cvm.AvgMetrics,
		BestRegParam: best,
		NumFolds:     cvm.NumFolds,
		Test:         rep,
	}, nil
}
