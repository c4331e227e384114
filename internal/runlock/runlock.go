// Package runlock serializes torex invocations with an advisory file lock so a
// torrent client finishing several downloads at once does not run concurrent
// extractions.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"torex/internal/logging"
	"torex/internal/services"
)

const retryDelay = 250 * time.Millisecond

// Lock is a held run lock.
type Lock struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Acquire takes the lock at path, waiting up to timeout for another invocation
// to release it. A non-positive timeout makes a single attempt.
func Acquire(ctx context.Context, path string, timeout time.Duration, logger *slog.Logger) (*Lock, error) {
	logger = logging.NewComponentLogger(logger, "runlock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "runlock", "create lock directory", path, err)
	}

	l := &Lock{path: path, lock: flock.New(path), logger: logger}

	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "runlock", "acquire", path, err)
	}
	if ok {
		logger.Debug("run lock acquired", logging.String("lock", path))
		return l, nil
	}
	if timeout <= 0 {
		return nil, services.Wrap(services.ErrLocked, "runlock", "acquire", "another torex run holds "+path, nil)
	}

	logger.Info("waiting for another torex run to finish",
		logging.String("lock", path),
		logging.Duration("timeout", timeout),
	)
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err = l.lock.TryLockContext(waitCtx, retryDelay)
	switch {
	case ok:
		logger.Debug("run lock acquired", logging.String("lock", path))
		return l, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err == nil || errors.Is(err, context.DeadlineExceeded):
		return nil, services.Wrap(
			services.ErrLocked,
			"runlock",
			"acquire",
			fmt.Sprintf("timed out after %s waiting for %s", timeout, path),
			nil,
		)
	default:
		return nil, services.Wrap(services.ErrTransient, "runlock", "acquire", path, err)
	}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the run lock. It is safe to call on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.lock == nil {
		return
	}
	if err := l.lock.Unlock(); err != nil {
		logging.WarnWithContext(l.logger, "failed to release run lock", "runlock_release_failed",
			logging.Error(err),
			logging.String("lock", l.path),
			logging.String(logging.FieldImpact, "the next run may wait for the lock timeout"),
		)
	}
}
