package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("AGENT_DISPATCH_DIR", "")

	workDir := t.TempDir()
	c, err := New(Options{WorkDir: workDir, Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, workDir, c.Config.WorkDir)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_STATE_HOME"), domain.AppName), c.Config.StoreDir)
	assert.Equal(t, domain.TmuxSocketPath(c.Config.StoreDir), c.Config.SocketPath)
	assert.NotNil(t, c.Waker)
	assert.NotNil(t, c.Changes)

	assert.NotNil(t, c.RunTaskUseCase())
	assert.NotNil(t, c.NotifyCompletionUseCase())
	assert.NotNil(t, c.ShowTaskUseCase())
}

func TestNew_WorkspaceConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AGENT_DISPATCH_DIR", "")

	workDir := t.TempDir()
	storeDir := filepath.Join(t.TempDir(), "results")
	require.NoError(t, os.WriteFile(domain.WorkspaceConfigPath(workDir), []byte(`
[store]
dir = "`+storeDir+`"

[wake]
enabled = false

[report]
changed_files = false
`), 0o644))

	c, err := New(Options{WorkDir: workDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, storeDir, c.Config.StoreDir)
	assert.Nil(t, c.Waker)
	assert.Nil(t, c.Changes)
}

func TestNew_StoreDirOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AGENT_DISPATCH_DIR", filepath.Join(t.TempDir(), "env"))

	override := filepath.Join(t.TempDir(), "flag")
	c, err := New(Options{WorkDir: t.TempDir(), StoreDir: override})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, override, c.Config.StoreDir)
}
