package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runoshun/agent-dispatch/internal/cli"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		wantStderr string
		want       int
	}{
		{
			name: "success",
			err:  nil,
			want: 0,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			want:       1,
			wantStderr: "boom\n",
		},
		{
			name: "agent exit code",
			err:  &cli.ExitError{Code: 7},
			want: 7,
		},
		{
			name:       "exit code with cause",
			err:        &cli.ExitError{Code: 2, Err: errors.New("agent binary not found: agent")},
			want:       2,
			wantStderr: "agent binary not found: agent\n",
		},
		{
			name: "wrapped exit error",
			err:  fmt.Errorf("run: %w", &cli.ExitError{Code: 3}),
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.want, exitCode(tt.err, &stderr))
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--version"}, &stderr))
	assert.Empty(t, stderr.String())
}
