// Package jsonstore provides single-file JSON implementations of
// ResultRepository and CallbackRepository.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Store implements domain.ResultRepository using latest.json and
// pending_wake.json in the result directory.
type Store struct {
	dir string
}

// Ensure Store implements ResultRepository.
var _ domain.ResultRepository = (*Store)(nil)

// New creates a new Store for the given result directory.
// The files do not need to exist; they are created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// SaveResult overwrites latest.json.
func (s *Store) SaveResult(result *domain.ResultRecord) error {
	return writeJSON(domain.LatestResultPath(s.dir), result)
}

// SavePendingWake overwrites pending_wake.json.
func (s *Store) SavePendingWake(wake *domain.PendingWakeRecord) error {
	return writeJSON(domain.PendingWakePath(s.dir), wake)
}

// LoadResult reads latest.json.
func (s *Store) LoadResult() (*domain.ResultRecord, error) {
	var result domain.ResultRecord
	if err := readJSON(domain.LatestResultPath(s.dir), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadPendingWake reads pending_wake.json.
func (s *Store) LoadPendingWake() (*domain.PendingWakeRecord, error) {
	var wake domain.PendingWakeRecord
	if err := readJSON(domain.PendingWakePath(s.dir), &wake); err != nil {
		return nil, err
	}
	return &wake, nil
}

// CallbackStore implements domain.CallbackRepository using
// <workdir>/.agent-callback.json.
type CallbackStore struct{}

// Ensure CallbackStore implements CallbackRepository.
var _ domain.CallbackRepository = (*CallbackStore)(nil)

// NewCallbackStore creates a new CallbackStore.
func NewCallbackStore() *CallbackStore {
	return &CallbackStore{}
}

// Load reads and validates the callback file of workDir.
func (c *CallbackStore) Load(workDir string) (*domain.Callback, error) {
	content, err := os.ReadFile(domain.CallbackFilePath(workDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read callback file: %w", err)
	}
	return domain.ParseCallback(content)
}

// Save validates cb and writes it to workDir.
func (c *CallbackStore) Save(workDir string, cb *domain.Callback) error {
	if err := cb.Validate(); err != nil {
		return err
	}
	return writeJSON(domain.CallbackFilePath(workDir), cb)
}

// Clear removes the callback file. A missing file is not an error.
func (c *CallbackStore) Clear(workDir string) error {
	err := os.Remove(domain.CallbackFilePath(workDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove callback file: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrNoResult
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(append(content, '\n'))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
