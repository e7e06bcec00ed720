package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
	"github.com/MarinaBorodkina/SPARK/pkg/jobs"
	"github.com/MarinaBorodkina/SPARK/pkg/logging"
	"github.com/MarinaBorodkina/SPARK/pkg/report"
	"github.com/MarinaBorodkina/SPARK/pkg/session"
)

// Action carries what every command needs: the configuration, a started
// session and a job runner over it.
type Action struct {
	cmd     *cobra.Command
	cfg     *config.Config
	session *session.Session
	runner  *jobs.Runner
	start   time.Time
}

func newAction(cmd *cobra.Command) (*Action, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if cmd.Flags().Lookup("model") != nil {
		if kind, _ := cmd.Flags().GetString("model"); kind != "" {
			cfg.Model.Kind = kind
		}
	}
	if cmd.Flags().Lookup("k") != nil {
		if k, _ := cmd.Flags().GetInt("k"); k != 0 {
			cfg.Model.Clusters = k
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	s, err := session.New(cfg.Session, logger)
	if err != nil {
		return nil, err
	}
	return &Action{cmd: cmd, cfg: cfg, session: s, runner: jobs.NewRunner(s, cfg), start: time.Now()}, nil
}

// Close stops the session and joins its error with err.
func (a *Action) Close(err error) error {
	a.session.Logger().Debug("command finished",
		zap.String("command", a.cmd.Name()),
		zap.Duration("took", time.Since(a.start)),
		zap.Error(err))
	return multierr.Append(err, a.session.Close())
}

// run wraps a command body with session setup and teardown.
func run(fn func(a *Action) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newAction(cmd)
		if err != nil {
			return err
		}
		return a.Close(fn(a))
	}
}

var (
	showFlights    = run(doShow)
	flightSpeed    = run(doSpeed)
	flightDelay    = run(doDelay)
	flightDuration = run(doDuration)
	spamFilter     = run(doSpam)
	tuneDelay      = run(doTune)
	flightClusters = run(doClusters)
)

func doShow(a *Action) error {
	n, _ := a.cmd.Flags().GetInt("rows")
	f, err := a.runner.LoadFlights()
	if err != nil {
		return err
	}
	fmt.Print(f.Schema())
	fmt.Printf("%d rows\n", f.Count())
	return f.Show(os.Stdout, n)
}

func doSpeed(a *Action) error {
	rep, err := a.runner.FlightSpeed()
	if err != nil {
		return err
	}
	fmt.Printf("%d flights with air time and distance\n", rep.Rows)
	if err := rep.Speeds.Show(os.Stdout, 20); err != nil {
		return err
	}
	return rep.Summary.Show(os.Stdout, 10)
}

func printClassification(a *Action, rep *jobs.ClassificationReport) error {
	fmt.Printf("train %d rows (%.2f), test %d rows\n", rep.TrainRows, rep.TrainShare, rep.TestRows)
	if err := report.Confusion(os.Stdout, rep.Confusion); err != nil {
		return err
	}
	if err := report.Metrics(os.Stdout, rep.Model, rep.Metrics()); err != nil {
		return err
	}
	path := a.cfg.Report.ROCPlot
	if a.cmd.Flags().Lookup("roc") != nil {
		if p, _ := a.cmd.Flags().GetString("roc"); p != "" {
			path = p
		}
	}
	if path == "" {
		return nil
	}
	if err := report.ROCPlot(path, rep.Scores, rep.Labels); err != nil {
		return err
	}
	fmt.Printf("saved ROC curve to %s\n", path)
	return nil
}

func doDelay(a *Action) error {
	rep, err := a.runner.FlightDelay()
	if err != nil {
		return err
	}
	return printClassification(a, rep)
}

func doSpam(a *Action) error {
	rep, err := a.runner.SpamFilter()
	if err != nil {
		return err
	}
	return printClassification(a, rep)
}

func doDuration(a *Action) error {
	rep, err := a.runner.FlightDuration()
	if err != nil {
		return err
	}
	fmt.Printf("train %d rows, test %d rows, solver %s\n", rep.TrainRows, rep.TestRows, rep.Training.Solver)
	if err := report.Metrics(os.Stdout, "duration", map[string]float64{
		"rmse":       rep.RMSE,
		"r2":         rep.R2,
		"train_rmse": rep.Training.RMSE,
		"train_r2":   rep.Training.R2,
	}); err != nil {
		return err
	}
	return report.Coefficients(os.Stdout, rep.Features, rep.Coefficients, rep.Intercept)
}

func doTune(a *Action) error {
	rep, err := a.runner.TuneFlightDelay()
	if err != nil {
		return err
	}
	scores := make(map[string]float64, len(rep.RegParams))
	for i, r := range rep.RegParams {
		scores[fmt.Sprintf("regParam=%g", r)] = rep.AvgAUC[i]
	}
	if err := report.Metrics(os.Stdout, fmt.Sprintf("%d-fold AUC", rep.NumFolds), scores); err != nil {
		return err
	}
	fmt.Printf("best regParam %g\n", rep.BestRegParam)
	return printClassification(a, rep.Test)
}

func doClusters(a *Action) error {
	rep, err := a.runner.FlightClusters()
	if err != nil {
		return err
	}
	fmt.Printf("%d flights in %d clusters after %d iterations, cost %.3f\n", rep.Rows, rep.K, rep.Iterations, rep.Cost)
	fmt.Printf("explained variance %.3f\n", rep.ExplainedVariance)
	for i, c := range rep.Centers {
		fmt.Printf("cluster %d: %d flights, center %v\n", i, rep.Sizes[i], c)
	}
	return nil
}
