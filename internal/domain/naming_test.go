package domain

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"calc-cli", "calc-cli"},
		{"Fix Login Bug!", "fix-login-bug"},
		{"  __  ", ""},
		{"中文 task", "task"},
		{"a-very-long-task-name-that-keeps-going-and-going", "a-very-long-task-name-that-keeps"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNewTaskID(t *testing.T) {
	id := NewTaskID("Calc CLI")
	assert.Regexp(t, regexp.MustCompile(`^calc-cli-[0-9a-f]{8}$`), id)
	assert.NoError(t, ValidateTaskID(id))

	assert.Regexp(t, regexp.MustCompile(`^task-[0-9a-f]{8}$`), NewTaskID("!!!"))
	assert.NotEqual(t, NewTaskID("x"), NewTaskID("x"))
}

func TestValidateTaskID(t *testing.T) {
	for _, bad := range []string{"", "../etc", "a/b", ".hidden", "a..b"} {
		assert.ErrorIs(t, ValidateTaskID(bad), ErrInvalidTaskID, bad)
	}
	assert.NoError(t, ValidateTaskID("calc-cli-1a2b3c4d"))
}

func TestPaths(t *testing.T) {
	dir := "/state"
	assert.Equal(t, filepath.Join(dir, "tasks", "t1", "task.json"), TaskRecordPath(dir, "t1"))
	assert.Equal(t, filepath.Join(dir, "tasks", "t1", "output.log"), CapturePath(dir, "t1"))
	assert.Equal(t, filepath.Join(dir, "locks", "t1.lock"), LockPath(dir, "t1"))
	assert.Equal(t, filepath.Join(dir, "latest.json"), LatestResultPath(dir))
	assert.Equal(t, filepath.Join(dir, "pending_wake.json"), PendingWakePath(dir))
	assert.Equal(t, filepath.Join(dir, "logs", "task-t1.log"), TaskLogPath(dir, "t1"))
	assert.Equal(t, "dispatch-t1", SessionName("t1"))
}
