package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
)

func TestParseMaster(t *testing.T) {
	for _, tc := range []struct {
		master string
		want   int
	}{
		{"", 1},
		{"local", 1},
		{"local[3]", 3},
		{"local[*]", runtime.GOMAXPROCS(0)},
	} {
		n, err := ParseMaster(tc.master)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n, test.ShouldEqual, tc.want)
	}
	for _, bad := range []string{"local[0]", "local[x]", "yarn"} {
		_, err := ParseMaster(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestSessionLifecycle(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	s, err := New(config.SessionConfig{AppName: "flights", Master: "local[2]"}, zap.New(obs))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.AppName(), test.ShouldEqual, "flights")
	test.That(t, s.Parallelism(), test.ShouldEqual, 2)
	test.That(t, s.ID(), test.ShouldNotBeEmpty)
	test.That(t, s.Active(), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("session started").Len(), test.ShouldEqual, 1)

	path := filepath.Join(t.TempDir(), "flights.csv")
	test.That(t, os.WriteFile(path, []byte("org,delay\nJFK,3\nORD,NA\n"), 0o600), test.ShouldBeNil)
	f, err := s.LoadCSV(path, data.CSVOptions{Header: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Count(), test.ShouldEqual, 2)
	loaded := logs.FilterMessage("loaded csv").All()
	test.That(t, loaded, test.ShouldHaveLength, 1)
	test.That(t, loaded[0].ContextMap()["rows"], test.ShouldEqual, int64(2))

	ran := false
	test.That(t, s.Do("count", func() error { ran = true; return nil }), test.ShouldBeNil)
	test.That(t, ran, test.ShouldBeTrue)
	boom := errors.New("boom")
	test.That(t, s.Do("fail", func() error { return boom }), test.ShouldEqual, boom)

	test.That(t, s.Close(), test.ShouldBeNil)
	test.That(t, s.Close(), test.ShouldBeNil)
	test.That(t, s.Active(), test.ShouldBeFalse)
	test.That(t, logs.FilterMessage("session stopped").Len(), test.ShouldEqual, 1)

	_, err = s.LoadCSV(path, data.CSVOptions{Header: true})
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrClosed)
	err = s.Do("late", func() error { t.Fatal("ran after close"); return nil })
	test.That(t, err, test.ShouldEqual, ErrClosed)
}

func TestNewRejectsBadMaster(t *testing.T) {
	_, err := New(config.SessionConfig{Master: "mesos"}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	s, err := New(config.SessionConfig{}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Logger(), test.ShouldNotBeNil)

	_, err = s.LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), data.CSVOptions{})
	test.That(t, err, test.ShouldNotBeNil)
}
