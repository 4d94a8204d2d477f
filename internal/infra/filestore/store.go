// Package filestore provides file-based implementations of TaskRepository
// and CaptureStore under <dir>/tasks.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Store implements domain.TaskRepository and domain.CaptureStore using
// one directory per task.
type Store struct {
	dir string
}

// Ensure Store implements the repository interfaces.
var (
	_ domain.TaskRepository = (*Store)(nil)
	_ domain.CaptureStore   = (*Store)(nil)
)

// New creates a new Store rooted at the result directory.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Get retrieves a record by task ID.
func (s *Store) Get(id string) (*domain.TaskRecord, error) {
	rec, _, err := s.GetWithModTime(id)
	return rec, err
}

// GetWithModTime retrieves a record and the modification time of its file.
// Reads take no lock: records are only ever replaced by rename.
func (s *Store) GetWithModTime(id string) (*domain.TaskRecord, time.Time, error) {
	if err := domain.ValidateTaskID(id); err != nil {
		return nil, time.Time{}, err
	}
	return s.readRecord(id)
}

// Save atomically creates or replaces a record. Writers are serialized per task.
func (s *Store) Save(rec *domain.TaskRecord) error {
	if err := domain.ValidateTaskID(rec.ID); err != nil {
		return err
	}
	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task record: %w", err)
	}
	return s.withLock(rec.ID, syscall.LOCK_EX, func() error {
		return writeAtomic(domain.TaskRecordPath(s.dir, rec.ID), append(content, '\n'), 0o600)
	})
}

// Update applies fn to the stored record under the task's write lock, so
// concurrent read-modify-write cycles are serialized.
func (s *Store) Update(id string, fn func(*domain.TaskRecord) error) (*domain.TaskRecord, error) {
	if err := domain.ValidateTaskID(id); err != nil {
		return nil, err
	}
	// Checked before locking so a missing task does not get a directory.
	if _, err := os.Stat(domain.TaskRecordPath(s.dir, id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("stat task record: %w", err)
	}

	var updated *domain.TaskRecord
	err := s.withLock(id, syscall.LOCK_EX, func() error {
		rec, _, err := s.readRecord(id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		content, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal task record: %w", err)
		}
		if err := writeAtomic(domain.TaskRecordPath(s.dir, id), append(content, '\n'), 0o600); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetCurrent records id as the most recently begun task.
func (s *Store) SetCurrent(id string) error {
	if err := domain.ValidateTaskID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}
	return writeAtomic(domain.CurrentTaskPath(s.dir), []byte(id+"\n"), 0o600)
}

// Current returns the most recently begun task ID.
func (s *Store) Current() (string, error) {
	content, err := os.ReadFile(domain.CurrentTaskPath(s.dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrTaskNotFound
		}
		return "", fmt.Errorf("read current task: %w", err)
	}
	id := strings.TrimSpace(string(content))
	if id == "" {
		return "", domain.ErrTaskNotFound
	}
	if err := domain.ValidateTaskID(id); err != nil {
		return "", err
	}
	return id, nil
}

// OpenWriter opens the capture file of id for appending.
func (s *Store) OpenWriter(id string) (io.WriteCloser, error) {
	if err := domain.ValidateTaskID(id); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(domain.TaskDir(s.dir, id), 0o750); err != nil {
		return nil, fmt.Errorf("create task directory: %w", err)
	}
	f, err := os.OpenFile(s.Path(id), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return f, nil
}

// Path returns the capture file path of id.
func (s *Store) Path(id string) string {
	return domain.CapturePath(s.dir, id)
}

// ReadTail returns at most limit trailing characters of the capture.
// A non-positive limit returns the whole capture.
func (s *Store) ReadTail(id string, limit int) (string, error) {
	if err := domain.ValidateTaskID(id); err != nil {
		return "", err
	}
	f, err := os.Open(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open capture: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat capture: %w", err)
	}

	// A rune is at most utf8.UTFMax bytes, so this window always holds limit runes.
	offset := int64(0)
	if limit > 0 {
		if window := int64(limit) * utf8.UTFMax; info.Size() > window {
			offset = info.Size() - window
		}
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek capture: %w", err)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read capture: %w", err)
	}
	if offset > 0 {
		content = trimPartialRune(content)
	}
	if limit <= 0 {
		return string(content), nil
	}
	return domain.TailRunes(string(content), limit), nil
}

// trimPartialRune drops continuation bytes left at the start of b by a seek
// into the middle of a multi-byte rune.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < len(b) && i < utf8.UTFMax; i++ {
		if utf8.RuneStart(b[i]) {
			return b[i:]
		}
	}
	return b
}

func (s *Store) readRecord(id string) (*domain.TaskRecord, time.Time, error) {
	f, err := os.Open(domain.TaskRecordPath(s.dir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, time.Time{}, fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
		}
		return nil, time.Time{}, fmt.Errorf("open task record: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat task record: %w", err)
	}

	var rec domain.TaskRecord
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse task record: %w", err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, info.ModTime(), nil
}

func (s *Store) withLock(id string, lockType int, fn func() error) error {
	lock, err := s.acquireLock(id, lockType)
	if err != nil {
		return err
	}
	defer releaseLock(lock)
	return fn()
}

func (s *Store) acquireLock(id string, lockType int) (*os.File, error) {
	taskDir := domain.TaskDir(s.dir, id)
	if err := os.MkdirAll(taskDir, 0o750); err != nil {
		return nil, fmt.Errorf("create task directory: %w", err)
	}

	lock, err := os.OpenFile(filepath.Join(taskDir, ".lock"), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// writeAtomic writes content to a unique temp file beside path and renames it
// into place, so readers never observe partial data.
func writeAtomic(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
