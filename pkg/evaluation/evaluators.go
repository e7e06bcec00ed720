package evaluation

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// Evaluator reduces a scored frame to one metric.
type Evaluator interface {
	Evaluate(f *frame.Frame) (float64, error)
	// LargerBetter reports whether higher values mean a better model.
	LargerBetter() bool
	Name() string
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ---------------------------
// Binary classification
// ---------------------------

// BinaryClassificationEvaluator computes areaUnderROC (default) or
// areaUnderPR from a label column and a score column. The score column may
// be a numeric column or a rawPrediction/probability vector, in which case
// slot 1 is the positive score.
type BinaryClassificationEvaluator struct {
	LabelCol         string
	RawPredictionCol string
	Metric           string
}

func (e *BinaryClassificationEvaluator) Name() string {
	return orDefault(e.Metric, "areaUnderROC")
}

func (e *BinaryClassificationEvaluator) LargerBetter() bool { return true }

func (e *BinaryClassificationEvaluator) Evaluate(f *frame.Frame) (float64, error) {
	scores, labels, err := scoredLabels(f, orDefault(e.LabelCol, "label"), orDefault(e.RawPredictionCol, "rawPrediction"))
	if err != nil {
		return 0, err
	}
	switch e.Name() {
	case "areaUnderROC":
		return AreaUnderROC(scores, labels)
	case "areaUnderPR":
		return AreaUnderPR(scores, labels)
	}
	return 0, errors.Errorf("evaluation: unknown binary metric %q", e.Metric)
}

func scoredLabels(f *frame.Frame, labelCol, scoreCol string) ([]float64, []bool, error) {
	lv, ln, err := f.Floats(labelCol)
	if err != nil {
		return nil, nil, err
	}
	t, err := f.TypeOf(scoreCol)
	if err != nil {
		return nil, nil, err
	}
	n := len(lv)
	raw := make([]float64, n)
	null := make([]bool, n)
	if t == frame.Vector {
		vecs, _ := f.Vectors(scoreCol)
		for i, v := range vecs {
			switch {
			case v == nil:
				null[i] = true
			case v.Len() == 1:
				raw[i] = v.At(0)
			default:
				raw[i] = v.At(1)
			}
		}
	} else {
		vals, nulls, err := f.Floats(scoreCol)
		if err != nil {
			return nil, nil, err
		}
		copy(raw, vals)
		copy(null, nulls)
	}
	var scores []float64
	var labels []bool
	for i := 0; i < n; i++ {
		if ln[i] || null[i] {
			continue
		}
		if lv[i] != 0 && lv[i] != 1 {
			return nil, nil, errors.Errorf("evaluation: label %v in row %d is not binary", lv[i], i)
		}
		scores = append(scores, raw[i])
		labels = append(labels, lv[i] == 1)
	}
	if len(scores) == 0 {
		return nil, nil, errors.Wrap(data.ErrEmptyDataset, "evaluation: no scored rows")
	}
	return scores, labels, nil
}

// ROC returns the ROC curve points ordered by increasing false positive rate.
func ROC(scores []float64, labels []bool) (fpr, tpr []float64, err error) {
	pos := 0
	for _, l := range labels {
		if l {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return nil, nil, errors.New("evaluation: ROC needs both positive and negative labels")
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })
	y := make([]float64, len(order))
	classes := make([]bool, len(order))
	for r, i := range order {
		y[r], classes[r] = scores[i], labels[i]
	}
	tpr, fpr, _ = stat.ROC(nil, y, classes, nil)
	if !sort.Float64sAreSorted(fpr) {
		reverse(fpr)
		reverse(tpr)
	}
	return fpr, tpr, nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// AreaUnderROC integrates the ROC curve with the trapezoidal rule.
func AreaUnderROC(scores []float64, labels []bool) (float64, error) {
	fpr, tpr, err := ROC(scores, labels)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AreaUnderPR integrates precision over recall, thresholding at each
// distinct score from the highest down. The curve starts at recall 0 with
// the precision of the first threshold.
func AreaUnderPR(scores []float64, labels []bool) (float64, error) {
	pos := 0
	for _, l := range labels {
		if l {
			pos++
		}
	}
	if pos == 0 {
		return 0, errors.New("evaluation: PR curve needs positive labels")
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	var recall, precision []float64
	tp, fp := 0, 0
	for r := 0; r < len(order); r++ {
		if labels[order[r]] {
			tp++
		} else {
			fp++
		}
		if r+1 < len(order) && scores[order[r+1]] == scores[order[r]] {
			continue
		}
		recall = append(recall, float64(tp)/float64(pos))
		precision = append(precision, float64(tp)/float64(tp+fp))
	}
	recall = append([]float64{0}, recall...)
	precision = append([]float64{precision[0]}, precision...)
	return integrate.Trapezoidal(recall, precision), nil
}

// ---------------------------
// Multiclass classification
// ---------------------------

// MulticlassClassificationEvaluator computes accuracy, f1 (default),
// weightedPrecision or weightedRecall. Weighted metrics average the
// per-class values by each class's share of the labels.
type MulticlassClassificationEvaluator struct {
	LabelCol      string
	PredictionCol string
	Metric        string
}

func (e *MulticlassClassificationEvaluator) Name() string { return orDefault(e.Metric, "f1") }

func (e *MulticlassClassificationEvaluator) LargerBetter() bool { return true }

func (e *MulticlassClassificationEvaluator) Evaluate(f *frame.Frame) (float64, error) {
	y, p, err := pairs(f, orDefault(e.LabelCol, "label"), orDefault(e.PredictionCol, "prediction"))
	if err != nil {
		return 0, err
	}
	if e.Name() == "accuracy" {
		return Accuracy(y, p), nil
	}
	actual := map[float64]int{}
	predicted := map[float64]int{}
	hits := map[float64]int{}
	for i := range y {
		actual[y[i]]++
		predicted[p[i]]++
		if y[i] == p[i] {
			hits[y[i]]++
		}
	}
	n := float64(len(y))
	total := 0.0
	for c, cnt := range actual {
		prec := ratio(hits[c], predicted[c])
		rec := ratio(hits[c], cnt)
		var v float64
		switch e.Name() {
		case "weightedPrecision":
			v = prec
		case "weightedRecall":
			v = rec
		case "f1":
			if prec+rec > 0 {
				v = 2 * prec * rec / (prec + rec)
			}
		default:
			return 0, errors.Errorf("evaluation: unknown multiclass metric %q", e.Metric)
		}
		total += float64(cnt) / n * v
	}
	return total, nil
}

// ---------------------------
// Regression
// ---------------------------

// RegressionEvaluator computes rmse (default), mse, mae or r2.
type RegressionEvaluator struct {
	LabelCol      string
	PredictionCol string
	Metric        string
}

func (e *RegressionEvaluator) Name() string { return orDefault(e.Metric, "rmse") }

func (e *RegressionEvaluator) LargerBetter() bool { return e.Name() == "r2" }

func (e *RegressionEvaluator) Evaluate(f *frame.Frame) (float64, error) {
	y, p, err := pairs(f, orDefault(e.LabelCol, "label"), orDefault(e.PredictionCol, "prediction"))
	if err != nil {
		return 0, err
	}
	var v float64
	switch e.Name() {
	case "rmse":
		v = RMSE(y, p)
	case "mse":
		v = MSE(y, p)
	case "mae":
		v = MAE(y, p)
	case "r2":
		v = R2(y, p)
	default:
		return 0, errors.Errorf("evaluation: unknown regression metric %q", e.Metric)
	}
	if math.IsNaN(v) {
		return 0, errors.New("evaluation: metric undefined")
	}
	return v, nil
}
