// Package session provides the explicit handle that workflows run under:
// it carries the application name, the degree of local parallelism, the
// logger, and a closed flag that fences off use after teardown.
package session

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/config"
	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session: closed")

// Session is safe for concurrent use.
type Session struct {
	id          string
	appName     string
	master      string
	parallelism int
	started     time.Time
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New starts a session. A nil logger is replaced by a no-op logger.
func New(cfg config.SessionConfig, logger *zap.Logger) (*Session, error) {
	par, err := ParseMaster(cfg.Master)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		id:          uuid.NewString(),
		appName:     cfg.AppName,
		master:      cfg.Master,
		parallelism: par,
		started:     time.Now(),
	}
	s.logger = logger.With(zap.String("app", cfg.AppName), zap.String("session", s.id))
	s.logger.Info("session started", zap.String("master", cfg.Master), zap.Int("parallelism", par))
	return s, nil
}

// ParseMaster maps local to 1, local[N] to N and local[*] to GOMAXPROCS.
func ParseMaster(master string) (int, error) {
	switch {
	case master == "" || master == "local":
		return 1, nil
	case master == "local[*]":
		return runtime.GOMAXPROCS(0), nil
	case strings.HasPrefix(master, "local[") && strings.HasSuffix(master, "]"):
		n, err := strconv.Atoi(master[len("local[") : len(master)-1])
		if err != nil || n < 1 {
			return 0, errors.Errorf("session: invalid thread count in master %q", master)
		}
		return n, nil
	}
	return 0, errors.Errorf("session: unsupported master %q", master)
}

func (s *Session) ID() string          { return s.id }
func (s *Session) AppName() string     { return s.appName }
func (s *Session) Master() string      { return s.master }
func (s *Session) Parallelism() int    { return s.parallelism }
func (s *Session) Logger() *zap.Logger { return s.logger }

// Active reports whether Close has not been called.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Session) check() error {
	if !s.Active() {
		return ErrClosed
	}
	return nil
}

// LoadCSV reads a delimited file into a frame and logs what the loader did.
func (s *Session) LoadCSV(path string, opts data.CSVOptions) (*frame.Frame, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	f, st, err := data.LoadCSV(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "session: load %s", path)
	}
	s.logger.Info("loaded csv",
		zap.String("path", path),
		zap.Int("rows", f.Count()),
		zap.Int("columns", len(f.Columns())),
		zap.Int("skipped", st.Skipped),
		zap.Int("reshaped", st.Reshaped),
		zap.Int("dropped", st.Dropped))
	return f, nil
}

// Do runs fn unless the session is closed.
func (s *Session) Do(name string, fn func() error) error {
	if err := s.check(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	s.logger.Debug("step finished", zap.String("step", name), zap.Duration("took", time.Since(start)), zap.Error(err))
	return err
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("session stopped", zap.Duration("uptime", time.Since(s.started)))
	_ = s.logger.Sync()
	return nil
}
