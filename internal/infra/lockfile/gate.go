// Package lockfile implements the per-task dedup marker used to debounce
// repeated completion triggers.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/runoshun/agent-dispatch/internal/domain"
)

// maxAttempts bounds retries when the marker disappears between the
// exclusive create and the stat.
const maxAttempts = 3

// Gate implements domain.DedupGate with marker files under <dir>/locks.
type Gate struct {
	dir string
}

// Ensure Gate implements domain.DedupGate.
var _ domain.DedupGate = (*Gate)(nil)

// New creates a new Gate rooted at the result directory.
func New(dir string) *Gate {
	return &Gate{dir: dir}
}

// TryAcquire claims the marker for key. The marker's modification time is
// the claim time; a marker younger than window blocks the claim.
func (g *Gate) TryAcquire(key string, window time.Duration, now time.Time) (bool, error) {
	if err := domain.ValidateTaskID(key); err != nil {
		return false, err
	}
	path := domain.LockPath(g.dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	for range maxAttempts {
		claimed, err := create(path, now)
		if err != nil || claimed {
			return claimed, err
		}

		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("stat lock: %w", err)
		}
		if now.Sub(info.ModTime()) < window {
			return false, nil
		}
		return reclaim(path, window, now)
	}
	return false, nil
}

// create makes the marker with O_EXCL. It returns false if the marker exists.
func create(path string, now time.Time) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock: %w", err)
	}
	_, writeErr := f.WriteString(now.Format(domain.TimestampLayout) + "\n")
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return false, fmt.Errorf("write lock: %w", err)
	}
	if err := os.Chtimes(path, now, now); err != nil {
		return false, fmt.Errorf("stamp lock: %w", err)
	}
	return true, nil
}

// reclaim replaces an expired marker. Reclaimers are serialized on a guard
// file and re-check the marker under it. The expired marker is renamed aside
// and the claim still goes through the exclusive create.
func reclaim(path string, window time.Duration, now time.Time) (bool, error) {
	guard, err := os.OpenFile(path+".guard", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return false, fmt.Errorf("open lock guard: %w", err)
	}
	defer func() { _ = guard.Close() }()
	if err := syscall.Flock(int(guard.Fd()), syscall.LOCK_EX); err != nil {
		return false, fmt.Errorf("acquire lock guard: %w", err)
	}
	defer func() { _ = syscall.Flock(int(guard.Fd()), syscall.LOCK_UN) }()

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return create(path, now)
	case err != nil:
		return false, fmt.Errorf("stat lock: %w", err)
	case now.Sub(info.ModTime()) < window:
		return false, nil
	}

	aside := path + "." + uuid.NewString() + ".stale"
	if err := os.Rename(path, aside); err != nil {
		return false, fmt.Errorf("reclaim lock: %w", err)
	}
	_ = os.Remove(aside)

	return create(path, now)
}
