package domain

import "errors"

// Domain errors.
var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrAlreadyCompleted       = errors.New("task already completed")
	ErrInvalidTaskID          = errors.New("invalid task id")
	ErrEmptyTaskName          = errors.New("task name cannot be empty")
	ErrEmptyPrompt            = errors.New("prompt cannot be empty")
	ErrAgentNotFound          = errors.New("agent binary not found")
	ErrTransportNotConfigured = errors.New("messaging transport not configured")
	ErrNoRecipient            = errors.New("no recipient configured")
	ErrNoToken                = errors.New("wake token not configured")
	ErrInvalidCallbackType    = errors.New("invalid callback type")
	ErrInvalidFrontmatter     = errors.New("invalid frontmatter")
	ErrNoResult               = errors.New("no result recorded yet")
	ErrTmuxNotFound           = errors.New("tmux not found in PATH")
	ErrSessionRunning         = errors.New("session already running")
	ErrNoSession              = errors.New("no running session")
)
