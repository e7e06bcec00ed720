package jobs

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/dataprep"
	"github.com/MarinaBorodkina/SPARK/pkg/evaluation"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/model"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

const (
	milesToKm = 1.60934
	// delays of at least this many minutes are labelled 1
	lateMinutes = 15
)

var flightNulls = []string{"NA", ""}

func (r *Runner) loadFlights(path string) (*frame.Frame, error) {
	return r.s.LoadCSV(path, data.CSVOptions{Delimiter: ',', Header: true, NullValues: flightNulls})
}

// LoadFlights returns the raw flights table for previews.
func (r *Runner) LoadFlights() (*frame.Frame, error) {
	return r.loadFlights(r.cfg.Data.FlightsPath)
}

// ---------------------------
// Speed
// ---------------------------

// SpeedReport holds per-origin average speeds.
type SpeedReport struct {
	Rows int
	// Speeds has origin, avg_speed and flights, fastest first. When an
	// airports table is configured it also carries the airport name.
	Speeds *frame.Frame
	// Summary describes duration_hrs and avg_speed.
	Summary *frame.Frame
}

// WithSpeed derives duration_hrs = air_time/60 and avg_speed =
// distance/duration_hrs. Rows with a null in either input get nulls.
func WithSpeed(f *frame.Frame) (*frame.Frame, error) {
	f, err := f.WithColumn("duration_hrs", frame.Col("air_time").Div(frame.Lit(60.0)))
	if err != nil {
		return nil, err
	}
	return f.WithColumn("avg_speed", frame.Col("distance").Div(frame.Col("duration_hrs")))
}

// FlightSpeed computes the average speed of each origin airport.
func (r *Runner) FlightSpeed() (*SpeedReport, error) {
	f, err := r.loadFlights(r.cfg.Data.SpeedPath)
	if err != nil {
		return nil, err
	}
	if f, err = f.DropNulls("origin", "air_time", "distance"); err != nil {
		return nil, err
	}
	if f, err = WithSpeed(f); err != nil {
		return nil, err
	}
	speeds, err := f.GroupBy("origin").Agg(
		frame.Mean("avg_speed").Alias("avg_speed"),
		frame.Count().Alias("flights"),
	)
	if err != nil {
		return nil, err
	}
	if speeds, err = speeds.Sort(frame.Desc("avg_speed")); err != nil {
		return nil, err
	}
	if path := r.cfg.Data.AirportsPath; path != "" {
		if speeds, err = r.withAirportNames(speeds, path); err != nil {
			return nil, err
		}
	}
	summary, err := f.Describe("duration_hrs", "avg_speed")
	if err != nil {
		return nil, err
	}
	r.logger.Info("flight speed", zap.Int("rows", f.Count()), zap.Int("origins", speeds.Count()))
	return &SpeedReport{Rows: f.Count(), Speeds: speeds, Summary: summary}, nil
}

// withAirportNames left-joins airport names onto the origin column.
func (r *Runner) withAirportNames(speeds *frame.Frame, path string) (*frame.Frame, error) {
	airports, err := r.loadFlights(path)
	if err != nil {
		return nil, err
	}
	if airports, err = airports.Select("faa", "name"); err != nil {
		return nil, err
	}
	if airports, err = airports.Rename("faa", "origin"); err != nil {
		return nil, err
	}
	joined, err := speeds.Join(airports, frame.Left, "origin")
	if err != nil {
		return nil, err
	}
	return joined.Sort(frame.Desc("avg_speed"))
}

// ---------------------------
// Delay classification
// ---------------------------

// flight columns every delay feature is built from
var delayInputs = []string{"mon", "dom", "dow", "carrier", "org", "km", "depart", "duration"}

// PrepareFlights drops the flight number and rows without a delay,
// converts mile to km and adds label = delay >= 15 as an integer.
func PrepareFlights(f *frame.Frame) (*frame.Frame, error) {
	f = f.Drop("flight")
	f, err := f.DropNulls("delay")
	if err != nil {
		return nil, err
	}
	if f, err = f.WithColumn("km", frame.Col("mile").Mul(frame.Lit(milesToKm)).Round(0)); err != nil {
		return nil, err
	}
	f = f.Drop("mile")
	return f.WithColumn(model.LabelCol, frame.Col("delay").Ge(frame.Lit(lateMinutes)).Cast(frame.Int))
}

// delayFeatures indexes carrier and org, one-hot encodes org and
// assembles the features column.
func delayFeatures() *pipeline.Pipeline {
	return pipeline.New(
		&dataprep.NullFilter{Cols: delayInputs},
		&dataprep.StringIndexer{InputCol: "carrier", OutputCol: "carrier_idx"},
		&dataprep.StringIndexer{InputCol: "org", OutputCol: "org_idx"},
		dataprep.NewOneHotEncoder([]string{"org_idx"}, []string{"org_dummy"}),
		&dataprep.VectorAssembler{
			InputCols: []string{"mon", "dom", "dow", "carrier_idx", "org_dummy", "km", "depart", "duration"},
			OutputCol: model.FeaturesCol,
		},
	)
}

// delayFrame loads and prepares flights and returns them with a features
// column. Indexers are fitted on every row so the test split never meets
// an unseen carrier or airport.
func (r *Runner) delayFrame() (*frame.Frame, error) {
	f, err := r.LoadFlights()
	if err != nil {
		return nil, err
	}
	if f, err = PrepareFlights(f); err != nil {
		return nil, err
	}
	fitted, err := delayFeatures().Fit(f)
	if err != nil {
		return nil, errors.Wrap(err, "jobs: delay features")
	}
	if m, err := fittedModel(fitted); err == nil {
		if idx, ok := m.Stages()[2].(*dataprep.StringIndexerModel); ok {
			r.logger.Debug("origin index", zap.Strings("labels", idx.Labels()))
		}
	}
	return fitted.Transform(f)
}

// FlightDelay predicts whether a flight departs late with the configured
// classifier.
func (r *Runner) FlightDelay() (*ClassificationReport, error) {
	f, err := r.delayFrame()
	if err != nil {
		return nil, err
	}
	est, err := r.classifier()
	if err != nil {
		return nil, err
	}
	return r.classify(f, est, r.cfg.Model.Kind)
}

// ---------------------------
// Duration regression
// ---------------------------

// DurationReport describes a linear model of flight duration.
type DurationReport struct {
	TrainRows int
	TestRows  int
	// RMSE and R2 are measured on the test split.
	RMSE         float64
	R2           float64
	Intercept    float64
	Coefficients []float64
	// Features names each coefficient.
	Features []string
	Training model.RegressionSummary
}

// departSplits are three-hour buckets over a day.
var departSplits = []float64{0, 3, 6, 9, 12, 15, 18, 21, 24}

func durationFeatures() *pipeline.Pipeline {
	return pipeline.New(
		&dataprep.NullFilter{Cols: []string{"org", "km", "depart", "dow", "duration"}},
		&dataprep.StringIndexer{InputCol: "org", OutputCol: "org_idx"},
		&dataprep.Bucketizer{InputCol: "depart", OutputCol: "depart_bucket", Splits: departSplits, HandleInvalid: dataprep.HandleSkip},
		dataprep.NewOneHotEncoder(
			[]string{"org_idx", "depart_bucket", "dow"},
			[]string{"org_dummy", "depart_dummy", "dow_dummy"},
		),
		&dataprep.VectorAssembler{
			InputCols: []string{"km", "org_dummy", "depart_dummy", "dow_dummy"},
			OutputCol: model.FeaturesCol,
		},
	)
}

// FlightDuration regresses duration on distance, origin, departure time
// bucket and day of week.
func (r *Runner) FlightDuration() (*DurationReport, error) {
	f, err := r.LoadFlights()
	if err != nil {
		return nil, err
	}
	f = f.Drop("flight")
	if f, err = f.WithColumn("km", frame.Col("mile").Mul(frame.Lit(milesToKm)).Round(0)); err != nil {
		return nil, err
	}
	fitted, err := durationFeatures().Fit(f)
	if err != nil {
		return nil, errors.Wrap(err, "jobs: duration features")
	}
	if f, err = fitted.Transform(f); err != nil {
		return nil, err
	}
	train, test, err := data.TrainTestSplit(f, r.cfg.Split.TrainRatio, r.cfg.Split.Seed)
	if err != nil {
		return nil, err
	}

	lr := model.NewLinearRegression()
	lr.Label = "duration"
	lr.RegParam = r.cfg.Model.RegParam
	var m *model.LinearRegressionModel
	err = r.s.Do("fit linear", func() error {
		var err error
		m, err = lr.FitLinear(train)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "jobs: fit linear")
	}
	scored, err := m.Transform(test)
	if err != nil {
		return nil, err
	}
	rmse, err := (&evaluation.RegressionEvaluator{LabelCol: "duration"}).Evaluate(scored)
	if err != nil {
		return nil, err
	}
	r2, err := (&evaluation.RegressionEvaluator{LabelCol: "duration", Metric: "r2"}).Evaluate(scored)
	if err != nil {
		return nil, err
	}
	r.logger.Info("flight duration",
		zap.Float64("rmse", rmse),
		zap.Float64("r2", r2),
		zap.String("solver", m.Summary().Solver))
	return &DurationReport{
		TrainRows:    train.Count(),
		TestRows:     test.Count(),
		RMSE:         rmse,
		R2:           r2,
		Intercept:    m.Intercept(),
		Coefficients: m.Coefficients(),
		Features:     m.Attrs(),
		Training:     m.Summary(),
	}, nil
}
