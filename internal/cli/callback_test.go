package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

func TestCallbackSet(t *testing.T) {
	tests := []struct {
		want *domain.Callback
		name string
		args []string
	}{
		{
			name: "group",
			args: []string{"group", "chat:g"},
			want: &domain.Callback{Type: domain.CallbackGroup, Group: "chat:g"},
		},
		{
			name: "dm with account",
			args: []string{"dm", "user:d", "--account", "bot2"},
			want: &domain.Callback{Type: domain.CallbackDM, DM: "user:d", Account: "bot2"},
		},
		{
			name: "wake",
			args: []string{"wake"},
			want: &domain.Callback{Type: domain.CallbackWake},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t)

			args := append([]string{"callback", "set"}, tt.args...)
			require.NoError(t, te.execute(args...))
			assert.Equal(t, tt.want, te.callbacks.Callbacks[te.c.Config.WorkDir])
			assert.Contains(t, te.stdout.String(), domain.CallbackFileName)
		})
	}
}

func TestCallbackSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown type", args: []string{"email", "a@b"}},
		{name: "group without target", args: []string{"group"}},
		{name: "wake with target", args: []string{"wake", "chat:g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t)
			args := append([]string{"callback", "set"}, tt.args...)
			assert.Error(t, te.execute(args...))
			assert.Empty(t, te.callbacks.Callbacks)
		})
	}
}

func TestCallbackShowAndClear(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.execute("callback", "show"))
	assert.Contains(t, te.stdout.String(), "No callback file")

	te.callbacks.Callbacks[te.c.Config.WorkDir] = &domain.Callback{Type: domain.CallbackGroup, Group: "chat:g"}
	te.stdout.Reset()
	require.NoError(t, te.execute("callback", "show"))
	assert.Contains(t, te.stdout.String(), `"group": "chat:g"`)

	te.stdout.Reset()
	require.NoError(t, te.execute("callback", "clear"))
	assert.Contains(t, te.stdout.String(), "Removed")
	assert.Empty(t, te.callbacks.Callbacks)
}
