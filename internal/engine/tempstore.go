package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bnptool/internal/logging"
)

// TempPrefix names every temporary store directory under the scratch root.
const TempPrefix = "bnptool-"

// LockSuffix is appended to a store directory to form its lock file path.
const LockSuffix = ".lock"

// State tracks the lifecycle of a temporary store.
type State int

const (
	StateUnopened State = iota
	StateActive
	StateTornDown
	StateTornDownFailed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn-down"
	case StateTornDownFailed:
		return "torn-down (failure)"
	default:
		return "unopened"
	}
}

// TempStore is an isolated, ephemeral install area. While open, it holds an
// exclusive lock so sweeps leave it alone.
type TempStore struct {
	dir    string
	lock   *flock.Flock
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	closed   bool
	closeErr error
}

// OpenTempStore provisions a fresh store directory under root.
func OpenTempStore(root string, logger *slog.Logger) (*TempStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("temporary store root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	dir := filepath.Join(root, TempPrefix+uuid.NewString())
	lock := flock.New(dir + LockSuffix)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock temporary store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("temporary store %s already locked", dir)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
		return nil, fmt.Errorf("create temporary store: %w", err)
	}

	store := &TempStore{
		dir:    dir,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "tempstore"),
		state:  StateActive,
	}
	store.logger.Debug("temporary store opened", logging.String("path", dir))
	return store, nil
}

// Dir returns the store directory.
func (s *TempStore) Dir() string {
	return s.dir
}

// Store returns the engine selector for this temporary area.
func (s *TempStore) Store() Store {
	return Store{Dir: s.dir}
}

// State reports the current lifecycle state.
func (s *TempStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close removes the store directory and its lock file. It is safe to call
// more than once; later calls return the first result.
func (s *TempStore) Close() error {
	return s.teardown(nil)
}

// Release tears the store down and folds the outcome into cause. A non-nil
// cause is always returned unchanged; a teardown failure is then only logged.
// Use it in a deferred call so teardown happens on every exit path.
func (s *TempStore) Release(cause error) error {
	err := s.teardown(cause)
	if cause != nil {
		if err != nil {
			s.logger.Warn("temporary store teardown failed",
				logging.String("path", s.dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "tempstore_teardown_failed"),
				logging.String(logging.FieldErrorHint, "run 'bnptool clean' to remove leftovers"),
			)
		}
		return cause
	}
	return err
}

func (s *TempStore) teardown(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true

	var errs []error
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove temporary store: %w", err))
	}
	if err := s.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock temporary store: %w", err))
	}
	if err := os.Remove(s.lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove lock file: %w", err))
	}
	s.closeErr = errors.Join(errs...)

	if cause != nil || s.closeErr != nil {
		s.state = StateTornDownFailed
	} else {
		s.state = StateTornDown
	}
	s.logger.Debug("temporary store removed",
		logging.String("path", s.dir),
		logging.String("state", s.state.String()),
	)
	return s.closeErr
}
