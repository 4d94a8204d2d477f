package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// CallbackInput identifies the workspace whose callback file is used.
type CallbackInput struct {
	Callback *domain.Callback // Only used by SetCallback
	WorkDir  string
}

// CallbackOutput contains the callback file content; nil when absent.
type CallbackOutput struct {
	Callback *domain.Callback
	Path     string
}

// SetCallback is the use case for writing a workspace callback file.
type SetCallback struct {
	callbacks domain.CallbackRepository
}

// NewSetCallback creates a new SetCallback use case.
func NewSetCallback(callbacks domain.CallbackRepository) *SetCallback {
	return &SetCallback{callbacks: callbacks}
}

// Execute validates and writes the callback.
func (uc *SetCallback) Execute(_ context.Context, in CallbackInput) (*CallbackOutput, error) {
	dir, err := absDir(in.WorkDir)
	if err != nil {
		return nil, err
	}
	if in.Callback == nil {
		return nil, fmt.Errorf("callback: %w", domain.ErrInvalidCallbackType)
	}
	if err := uc.callbacks.Save(dir, in.Callback); err != nil {
		return nil, err
	}
	return &CallbackOutput{Callback: in.Callback, Path: domain.CallbackFilePath(dir)}, nil
}

// ShowCallback is the use case for reading a workspace callback file.
type ShowCallback struct {
	callbacks domain.CallbackRepository
}

// NewShowCallback creates a new ShowCallback use case.
func NewShowCallback(callbacks domain.CallbackRepository) *ShowCallback {
	return &ShowCallback{callbacks: callbacks}
}

// Execute loads the callback. A missing file yields a nil Callback.
func (uc *ShowCallback) Execute(_ context.Context, in CallbackInput) (*CallbackOutput, error) {
	dir, err := absDir(in.WorkDir)
	if err != nil {
		return nil, err
	}
	cb, err := uc.callbacks.Load(dir)
	if err != nil {
		return nil, err
	}
	return &CallbackOutput{Callback: cb, Path: domain.CallbackFilePath(dir)}, nil
}

// ClearCallback is the use case for removing a workspace callback file.
type ClearCallback struct {
	callbacks domain.CallbackRepository
}

// NewClearCallback creates a new ClearCallback use case.
func NewClearCallback(callbacks domain.CallbackRepository) *ClearCallback {
	return &ClearCallback{callbacks: callbacks}
}

// Execute removes the callback file.
func (uc *ClearCallback) Execute(_ context.Context, in CallbackInput) (*CallbackOutput, error) {
	dir, err := absDir(in.WorkDir)
	if err != nil {
		return nil, err
	}
	if err := uc.callbacks.Clear(dir); err != nil {
		return nil, err
	}
	return &CallbackOutput{Path: domain.CallbackFilePath(dir)}, nil
}

func absDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	return abs, nil
}
