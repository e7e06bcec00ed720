package jobs

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/dataprep"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/model"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

var clusterInputs = []string{"mon", "dom", "dow", "mile", "depart", "duration", "delay"}

// maxClusterNulls is the null fraction above which a cluster input is
// dropped instead of imputed.
const maxClusterNulls = 0.5

// ClusterReport summarises a k-means clustering of flights in the plane
// of their first two principal components.
type ClusterReport struct {
	Rows              int
	K                 int
	Iterations        int
	Cost              float64
	Sizes             []int
	Centers           []*core.Vector
	ExplainedVariance []float64
	Surrogates        map[string]float64
	// Dropped lists inputs removed for being mostly null.
	Dropped []string
}

func clusterPipeline(cols []string, k int, seed int64) *pipeline.Pipeline {
	km := model.NewKMeans(k)
	km.Seed = seed
	km.Features = "pca"
	return pipeline.New(
		&dataprep.Imputer{InputCols: cols, OutputCols: cols, Strategy: dataprep.StrategyMedian},
		&dataprep.VectorAssembler{InputCols: cols, OutputCol: "raw"},
		&dataprep.StandardScaler{InputCol: "raw", OutputCol: "scaled", WithMean: true, WithStd: true},
		&dataprep.PCA{InputCol: "scaled", OutputCol: "pca", K: 2},
		km,
	)
}

// clusterFrame keeps the cluster inputs of the loaded flights, minus the
// ones that are mostly null.
func (r *Runner) clusterFrame() (*frame.Frame, []string, error) {
	f, err := r.LoadFlights()
	if err != nil {
		return nil, nil, err
	}
	if f, err = f.Select(clusterInputs...); err != nil {
		return nil, nil, errors.Wrap(err, "jobs: cluster inputs")
	}
	dropper := &dataprep.SparseColumnDropper{MaxNullFraction: maxClusterNulls, Logger: r.logger}
	g, err := dropper.Transform(f)
	if err != nil {
		return nil, nil, err
	}
	var dropped []string
	for _, name := range clusterInputs {
		if !g.Has(name) {
			dropped = append(dropped, name)
		}
	}
	if len(g.Columns()) == 0 {
		return nil, nil, errors.New("jobs: every cluster input is mostly null")
	}
	return g, dropped, nil
}

// FlightClusters groups flights with k-means after dropping sparse inputs,
// median imputation, standardisation and a two-component PCA.
func (r *Runner) FlightClusters() (*ClusterReport, error) {
	f, dropped, err := r.clusterFrame()
	if err != nil {
		return nil, err
	}
	var fitted pipeline.Transformer
	err = r.s.Do("fit clusters", func() error {
		var err error
		fitted, err = clusterPipeline(f.Columns(), r.cfg.Model.Clusters, r.cfg.Split.Seed).Fit(f)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "jobs: fit clusters")
	}
	pm, err := fittedModel(fitted)
	if err != nil {
		return nil, err
	}
	stages := pm.Stages()
	imp, _ := stages[0].(*dataprep.ImputerModel)
	pca, _ := stages[3].(*dataprep.PCAModel)
	km, ok := pm.Last().(*model.KMeansModel)
	if imp == nil || pca == nil || !ok {
		return nil, errors.New("jobs: unexpected cluster pipeline stages")
	}

	scored, err := pm.Transform(f)
	if err != nil {
		return nil, err
	}
	assigned, _, err := scored.Floats(model.PredictionCol)
	if err != nil {
		return nil, err
	}
	sizes := make([]int, r.cfg.Model.Clusters)
	for _, c := range assigned {
		sizes[int(c)]++
	}
	r.logger.Info("flight clusters",
		zap.Int("k", r.cfg.Model.Clusters),
		zap.Float64("cost", km.TrainingCost()),
		zap.Ints("sizes", sizes))
	return &ClusterReport{
		Rows:              scored.Count(),
		K:                 r.cfg.Model.Clusters,
		Iterations:        km.Iterations(),
		Cost:              km.TrainingCost(),
		Sizes:             sizes,
		Centers:           km.ClusterCenters(),
		ExplainedVariance: pca.ExplainedVariance(),
		Surrogates:        imp.Surrogates(),
		Dropped:           dropped,
	}, nil
}
