package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "warn"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Core().Enabled(zapcore.WarnLevel), test.ShouldBeTrue)
	test.That(t, logger.Core().Enabled(zapcore.InfoLevel), test.ShouldBeFalse)

	logger, err = New(config.LogConfig{Level: "debug", Development: true, Encoding: "json"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)

	_, err = New(config.LogConfig{Level: "chatty"})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(config.LogConfig{Level: "info", Encoding: "xml"})
	test.That(t, err, test.ShouldNotBeNil)
}
