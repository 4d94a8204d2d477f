package lockfile

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_TryAcquire_Window(t *testing.T) {
	dir := t.TempDir()
	gate := New(dir)
	t0 := time.Now().Truncate(time.Second)
	window := 30 * time.Second

	ok, err := gate.TryAcquire("calc-1", window, t0)
	require.NoError(t, err)
	assert.True(t, ok, "first trigger claims")

	ok, err = gate.TryAcquire("calc-1", window, t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "second trigger within window is skipped")

	ok, err = gate.TryAcquire("calc-1", window, t0.Add(31*time.Second))
	require.NoError(t, err)
	assert.True(t, ok, "expired marker is reclaimed")

	ok, err = gate.TryAcquire("calc-1", window, t0.Add(40*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "reclaimed marker restarts the window")
}

func TestGate_TryAcquire_KeysIndependent(t *testing.T) {
	gate := New(t.TempDir())
	now := time.Now()

	ok, err := gate.TryAcquire("a", time.Minute, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.TryAcquire("b", time.Minute, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_TryAcquire_InvalidKey(t *testing.T) {
	_, err := New(t.TempDir()).TryAcquire("../x", time.Minute, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTaskID)
}

func TestGate_TryAcquire_Concurrent(t *testing.T) {
	tests := []struct {
		name       string
		preexpired bool
	}{
		{"fresh", false},
		{"expired marker", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			gate := New(dir)
			now := time.Now().Truncate(time.Second)

			if tt.preexpired {
				path := domain.LockPath(dir, "t1")
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
				require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))
				old := now.Add(-time.Hour)
				require.NoError(t, os.Chtimes(path, old, old))
			}

			var claimed atomic.Int32
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := gate.TryAcquire("t1", 30*time.Second, now)
					assert.NoError(t, err)
					if ok {
						claimed.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), claimed.Load())

			// No stale markers are left behind
			entries, err := os.ReadDir(filepath.Join(dir, "locks"))
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".stale")
			}
			_, err = os.Stat(domain.LockPath(dir, "t1"))
			assert.NoError(t, err)
		})
	}
}
