// Package logging builds the zap logger shared by sessions and jobs.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
)

// New returns a production logger, or a development one when cfg asks
// for it, at the configured level.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: level %q", cfg.Level)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build")
	}
	return logger, nil
}
