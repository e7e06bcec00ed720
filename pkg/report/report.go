// Package report prints job results as tables and draws ROC curves.
package report

import (
	"fmt"
	"image/color"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
)

// Metrics writes name/value pairs sorted by name under a title.
func Metrics(w io.Writer, title string, metrics map[string]float64) error {
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"metric", "value"})
	for _, k := range names {
		t.AppendRow(table.Row{k, fmt.Sprintf("%.4f", metrics[k])})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Confusion writes a 2x2 confusion matrix with label rows and prediction
// columns.
func Confusion(w io.Writer, c evaluation.Confusion) error {
	t := table.NewWriter()
	t.SetTitle("confusion matrix")
	t.AppendHeader(table.Row{"label \\ prediction", "0", "1"})
	t.AppendRow(table.Row{"0", c.TN, c.FP})
	t.AppendRow(table.Row{"1", c.FN, c.TP})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Coefficients writes one row per named model weight.
func Coefficients(w io.Writer, names []string, coef []float64, intercept float64) error {
	t := table.NewWriter()
	t.SetTitle("coefficients")
	t.AppendHeader(table.Row{"feature", "weight"})
	t.AppendRow(table.Row{"(intercept)", fmt.Sprintf("%.4f", intercept)})
	for j, v := range coef {
		name := fmt.Sprintf("f%d", j)
		if j < len(names) && names[j] != "" {
			name = names[j]
		}
		t.AppendRow(table.Row{name, fmt.Sprintf("%.4f", v)})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ROCPlot saves the ROC curve of scores against labels as an image. The
// format follows the file extension.
func ROCPlot(path string, scores []float64, labels []bool) error {
	fpr, tpr, err := evaluation.ROC(scores, labels)
	if err != nil {
		return err
	}
	auc, err := evaluation.AreaUnderROC(scores, labels)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "report: roc line")
	}
	l.Color = color.RGBA{B: 255, A: 255}
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)

	// chance diagonal
	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "report: diagonal")
	}
	diag.Color = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
