package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRecord(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := NewTaskRecord("calc-1", "calc-cli", "/work/calc", Recipients{Primary: "chat:1"}, "build it", "gpt-5", now)

	assert.Equal(t, StatusRunning, rec.Status)
	assert.Equal(t, "2026-01-02T03:04:05Z", rec.StartedAt)
	assert.Empty(t, rec.CompletedAt)
	assert.Nil(t, rec.ExitCode)
	assert.Equal(t, "chat:1", rec.Primary)
}

func TestTaskRecord_Complete(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := NewTaskRecord("calc-1", "calc-cli", "/work", Recipients{}, "", "", start)

	require.NoError(t, rec.Complete(0, start.Add(65*time.Second)))
	assert.Equal(t, StatusDone, rec.Status)
	require.NotNil(t, rec.ExitCode)
	assert.Equal(t, 0, *rec.ExitCode)
	assert.Equal(t, "2026-01-02T03:05:10Z", rec.CompletedAt)

	d, ok := rec.Duration()
	require.True(t, ok)
	assert.Equal(t, "1m5s", FormatDuration(d))
}

func TestTaskRecord_CompleteTwice(t *testing.T) {
	now := time.Now()
	rec := NewTaskRecord("a", "a", "", Recipients{}, "", "", now)
	require.NoError(t, rec.Complete(1, now))

	err := rec.Complete(0, now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 1, *rec.ExitCode, "exit code is immutable once written")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name      string
		started   string
		completed string
		want      string
		wantOK    bool
	}{
		{"125 seconds", "2026-01-01T00:00:00Z", "2026-01-01T00:02:05Z", "2m5s", true},
		{"under a minute", "2026-01-01T00:00:00Z", "2026-01-01T00:00:30Z", "0m30s", true},
		{"with offsets", "2026-01-01T09:00:00+09:00", "2026-01-01T00:01:00Z", "1m0s", true},
		{"missing start", "", "2026-01-01T00:02:05Z", "", false},
		{"missing completion", "2026-01-01T00:00:00Z", "", "", false},
		{"unparsable start", "yesterday", "2026-01-01T00:02:05Z", "", false},
		{"unparsable completion", "2026-01-01T00:00:00Z", "soon", "", false},
		{"negative", "2026-01-01T00:02:05Z", "2026-01-01T00:00:00Z", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := ParseDuration(tt.started, tt.completed)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, FormatDuration(d))
			}
		})
	}
}

func TestOutcomeOf(t *testing.T) {
	zero, two := 0, 2
	assert.Equal(t, OutcomeSuccess, OutcomeOf(&zero))
	assert.Equal(t, OutcomeFailure, OutcomeOf(&two))
	assert.Equal(t, OutcomeUnknown, OutcomeOf(nil))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusRunning.CanTransitionTo(StatusDone))
	assert.False(t, StatusDone.CanTransitionTo(StatusRunning))
	assert.False(t, StatusDone.CanTransitionTo(StatusDone))
	assert.False(t, Status("paused").IsValid())
}

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsStale(now.Add(-2*time.Hour-time.Second), now, 2*time.Hour))
	assert.False(t, IsStale(now.Add(-2*time.Hour), now, 2*time.Hour))
	assert.False(t, IsStale(now.Add(-time.Minute), now, 2*time.Hour))
}
