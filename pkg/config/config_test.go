package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestDefaults(t *testing.T) {
	c := Default()
	test.That(t, c.Validate(), test.ShouldBeNil)
	test.That(t, c.Session.Master, test.ShouldEqual, "local[*]")
	test.That(t, c.Split.TrainRatio, test.ShouldEqual, 0.8)
	test.That(t, c.Model.Kind, test.ShouldEqual, "tree")
	test.That(t, c.Model.Clusters, test.ShouldEqual, 3)
	test.That(t, c.CV.RegParams, test.ShouldResemble, []float64{0, 0.01, 0.1, 1})
	test.That(t, c.Data.AirportsPath, test.ShouldEqual, "")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparkml.yaml")
	body := `
session:
  master: local[4]
model:
  kind: forest
  num_trees: 50
cv:
  reg_params: [0.5]
report:
  roc_plot: roc.png
`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	c, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Session.Master, test.ShouldEqual, "local[4]")
	test.That(t, c.Session.AppName, test.ShouldEqual, "sparkml")
	test.That(t, c.Model.Kind, test.ShouldEqual, "forest")
	test.That(t, c.Model.NumTrees, test.ShouldEqual, 50)
	test.That(t, c.Model.MaxDepth, test.ShouldEqual, 5)
	test.That(t, c.CV.RegParams, test.ShouldResemble, []float64{0.5})
	test.That(t, c.Report.ROCPlot, test.ShouldEqual, "roc.png")
	test.That(t, c.Validate(), test.ShouldBeNil)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	test.That(t, os.WriteFile(bad, []byte("model: [oops"), 0o600), test.ShouldBeNil)
	_, err = Load(bad)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateCollectsAll(t *testing.T) {
	c := Default()
	c.Session.Master = "yarn"
	c.Log.Level = "loud"
	c.Split.TrainRatio = 1
	c.Model.Kind = "svm"
	c.CV.RegParams = []float64{-1}

	err := c.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 5)
	test.That(t, err.Error(), test.ShouldContainSubstring, "session.master")
	test.That(t, err.Error(), test.ShouldContainSubstring, "cv.reg_params")
}

func TestMasterPattern(t *testing.T) {
	for _, m := range []string{"local", "local[1]", "local[16]", "local[*]"} {
		test.That(t, masterPattern.MatchString(m), test.ShouldBeTrue)
	}
	for _, m := range []string{"local[0]", "local[]", "spark://host:7077"} {
		test.That(t, masterPattern.MatchString(m), test.ShouldBeFalse)
	}
}
