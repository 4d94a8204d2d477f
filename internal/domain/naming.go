package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxSlugLength = 32

// taskIDPattern matches ids accepted as path components.
var taskIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// NewTaskID returns a new task id of the form <slug>-<8 hex chars>.
func NewTaskID(name string) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	slug := Slugify(name)
	if slug == "" {
		return "task-" + short
	}
	return slug + "-" + short
}

// Slugify lowercases name and collapses non-alphanumerics into dashes.
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// ValidateTaskID returns ErrInvalidTaskID if id is not safe to use as a path component.
func ValidateTaskID(id string) error {
	if !taskIDPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%q: %w", id, ErrInvalidTaskID)
	}
	return nil
}

// SessionName returns the tmux session name for a task.
func SessionName(taskID string) string {
	return "dispatch-" + taskID
}

// TaskDir returns the directory holding a task's record and capture.
func TaskDir(resultDir, taskID string) string {
	return filepath.Join(resultDir, "tasks", taskID)
}

// TaskRecordPath returns the path to the task record file.
func TaskRecordPath(resultDir, taskID string) string {
	return filepath.Join(TaskDir(resultDir, taskID), "task.json")
}

// CapturePath returns the path to the task output capture file.
func CapturePath(resultDir, taskID string) string {
	return filepath.Join(TaskDir(resultDir, taskID), "output.log")
}

// CurrentTaskPath returns the path to the file naming the most recent task.
func CurrentTaskPath(resultDir string) string {
	return filepath.Join(resultDir, "current")
}

// LockPath returns the path to the dedup marker for a task.
func LockPath(resultDir, taskID string) string {
	return filepath.Join(resultDir, "locks", taskID+".lock")
}

// LatestResultPath returns the path to the single-slot result record.
func LatestResultPath(resultDir string) string {
	return filepath.Join(resultDir, "latest.json")
}

// PendingWakePath returns the path to the single-slot pending wake record.
func PendingWakePath(resultDir string) string {
	return filepath.Join(resultDir, "pending_wake.json")
}

// TaskLogPath returns the path to the task log file.
func TaskLogPath(resultDir, taskID string) string {
	return filepath.Join(resultDir, "logs", fmt.Sprintf("task-%s.log", taskID))
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(resultDir string) string {
	return filepath.Join(resultDir, "logs", "dispatch.log")
}

// TmuxSocketPath returns the path to the tmux socket.
func TmuxSocketPath(resultDir string) string {
	return filepath.Join(resultDir, "tmux.sock")
}

// CallbackFilePath returns the workspace-local callback configuration path.
func CallbackFilePath(workDir string) string {
	return filepath.Join(workDir, CallbackFileName)
}

// WorkspaceConfigPath returns the workspace-local config path.
func WorkspaceConfigPath(workDir string) string {
	return filepath.Join(workDir, WorkspaceConfigFileName)
}

// GlobalConfigDir returns the global config directory under configHome.
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppName)
}
