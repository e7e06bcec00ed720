// Package config loads the YAML run configuration.
package config

import (
	"os"
	"regexp"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config is the whole application configuration.
type Config struct {
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Data    DataConfig    `yaml:"data"`
	Split   SplitConfig   `yaml:"split"`
	Model   ModelConfig   `yaml:"model"`
	CV      CVConfig      `yaml:"cv"`
	Report  ReportConfig  `yaml:"report"`
}

// SessionConfig names the session and its parallelism.
type SessionConfig struct {
	AppName string `yaml:"app_name"`
	// Master is local, local[N] or local[*].
	Master string `yaml:"master"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	// Encoding is console or json; empty keeps the preset's default.
	Encoding string `yaml:"encoding"`
}

// DataConfig locates the input files.
type DataConfig struct {
	FlightsPath string `yaml:"flights_path"`
	// SpeedPath holds origin, air_time and distance per flight.
	SpeedPath string `yaml:"speed_path"`
	// AirportsPath is optional; when set, speed reports are joined with
	// airport names on faa code.
	AirportsPath string `yaml:"airports_path"`
	SMSPath      string `yaml:"sms_path"`
}

// SplitConfig controls the train/test split.
type SplitConfig struct {
	TrainRatio float64 `yaml:"train_ratio"`
	Seed       int64   `yaml:"seed"`
}

// ModelConfig holds classifier hyperparameters.
type ModelConfig struct {
	// Kind is tree, logistic or forest.
	Kind      string  `yaml:"kind"`
	MaxDepth  int     `yaml:"max_depth"`
	NumTrees  int     `yaml:"num_trees"`
	RegParam  float64 `yaml:"reg_param"`
	MaxIter   int     `yaml:"max_iter"`
	Threshold float64 `yaml:"threshold"`
	// Clusters is k for the clustering job.
	Clusters int `yaml:"clusters"`
}

// CVConfig drives cross-validated tuning.
type CVConfig struct {
	NumFolds    int       `yaml:"num_folds"`
	RegParams   []float64 `yaml:"reg_params"`
	Parallelism int       `yaml:"parallelism"`
}

// ReportConfig selects optional outputs.
type ReportConfig struct {
	// ROCPlot is a PNG path; empty disables the plot.
	ROCPlot string `yaml:"roc_plot"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML file. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read")
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Session.AppName == "" {
		c.Session.AppName = "sparkml"
	}
	if c.Session.Master == "" {
		c.Session.Master = "local[*]"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Data.FlightsPath == "" {
		c.Data.FlightsPath = "data/flights.csv"
	}
	if c.Data.SpeedPath == "" {
		c.Data.SpeedPath = "data/flights_small.csv"
	}
	if c.Data.SMSPath == "" {
		c.Data.SMSPath = "data/sms.csv"
	}
	if c.Split.TrainRatio == 0 {
		c.Split.TrainRatio = 0.8
	}
	if c.Split.Seed == 0 {
		c.Split.Seed = 17
	}
	if c.Model.Kind == "" {
		c.Model.Kind = "tree"
	}
	if c.Model.MaxDepth == 0 {
		c.Model.MaxDepth = 5
	}
	if c.Model.NumTrees == 0 {
		c.Model.NumTrees = 20
	}
	if c.Model.MaxIter == 0 {
		c.Model.MaxIter = 100
	}
	if c.Model.Threshold == 0 {
		c.Model.Threshold = 0.5
	}
	if c.Model.Clusters == 0 {
		c.Model.Clusters = 3
	}
	if c.CV.NumFolds == 0 {
		c.CV.NumFolds = 5
	}
	if c.CV.RegParams == nil {
		c.CV.RegParams = []float64{0, 0.01, 0.1, 1}
	}
}

var masterPattern = regexp.MustCompile(`^local(\[(\*|[1-9][0-9]*)\])?$`)

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if !masterPattern.MatchString(c.Session.Master) {
		err = multierr.Append(err, errors.Errorf("session.master %q: want local, local[N] or local[*]", c.Session.Master))
	}
	if !levels[c.Log.Level] {
		err = multierr.Append(err, errors.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Encoding != "" && c.Log.Encoding != "console" && c.Log.Encoding != "json" {
		err = multierr.Append(err, errors.Errorf("log.encoding %q: want console or json", c.Log.Encoding))
	}
	if c.Split.TrainRatio <= 0 || c.Split.TrainRatio >= 1 {
		err = multierr.Append(err, errors.Errorf("split.train_ratio %v: want a value in (0, 1)", c.Split.TrainRatio))
	}
	switch c.Model.Kind {
	case "tree", "logistic", "forest":
	default:
		err = multierr.Append(err, errors.Errorf("model.kind %q: want tree, logistic or forest", c.Model.Kind))
	}
	if c.Model.MaxDepth < 0 {
		err = multierr.Append(err, errors.Errorf("model.max_depth %d: must not be negative", c.Model.MaxDepth))
	}
	if c.Model.NumTrees < 1 {
		err = multierr.Append(err, errors.Errorf("model.num_trees %d: must be positive", c.Model.NumTrees))
	}
	if c.Model.RegParam < 0 {
		err = multierr.Append(err, errors.Errorf("model.reg_param %v: must not be negative", c.Model.RegParam))
	}
	if c.Model.Threshold <= 0 || c.Model.Threshold >= 1 {
		err = multierr.Append(err, errors.Errorf("model.threshold %v: want a value in (0, 1)", c.Model.Threshold))
	}
	if c.Model.Clusters < 2 {
		err = multierr.Append(err, errors.Errorf("model.clusters %d: need at least 2", c.Model.Clusters))
	}
	if c.CV.NumFolds < 2 {
		err = multierr.Append(err, errors.Errorf("cv.num_folds %d: need at least 2", c.CV.NumFolds))
	}
	if len(c.CV.RegParams) == 0 {
		err = multierr.Append(err, errors.New("cv.reg_params: need at least one value"))
	}
	for _, r := range c.CV.RegParams {
		if r < 0 {
			err = multierr.Append(err, errors.Errorf("cv.reg_params %v: must not be negative", r))
		}
	}
	return err
}
