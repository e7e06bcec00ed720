package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
)

func TestMetrics(t *testing.T) {
	var buf bytes.Buffer
	err := Metrics(&buf, "flight delay", map[string]float64{"recall": 0.5, "auc": 0.91234})
	test.That(t, err, test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "flight delay")
	test.That(t, out, test.ShouldContainSubstring, "0.9123")
	test.That(t, strings.Index(out, "auc"), test.ShouldBeLessThan, strings.Index(out, "recall"))
}

func TestConfusion(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, Confusion(&buf, evaluation.Confusion{TP: 7, TN: 11, FP: 3, FN: 2}), test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "confusion matrix")
	test.That(t, out, test.ShouldContainSubstring, "11")
}

func TestCoefficients(t *testing.T) {
	var buf bytes.Buffer
	err := Coefficients(&buf, []string{"km"}, []float64{0.0745, 3}, 44.5)
	test.That(t, err, test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "(intercept)")
	test.That(t, out, test.ShouldContainSubstring, "km")
	// unnamed slots fall back to their position
	test.That(t, out, test.ShouldContainSubstring, "f1")
}

func TestROCPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roc.png")
	scores := []float64{0.1, 0.4, 0.35, 0.8, 0.7, 0.2}
	labels := []bool{false, false, true, true, true, false}
	test.That(t, ROCPlot(path, scores, labels), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	err = ROCPlot(filepath.Join(t.TempDir(), "one.png"), []float64{0.3}, []bool{true})
	test.That(t, err, test.ShouldNotBeNil)
}
