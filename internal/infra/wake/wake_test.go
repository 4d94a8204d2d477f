package wake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openclaw.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadToken(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
		want    string
		wantErr error
	}{
		{"nested key", `{"hooks":{"token":"s3cret"}}`, "hooks.token", "s3cret", nil},
		{"top level key", `{"token":"abc"}`, "token", "abc", nil},
		{"missing key", `{"hooks":{}}`, "hooks.token", "", domain.ErrNoToken},
		{"empty token", `{"hooks":{"token":"  "}}`, "hooks.token", "", domain.ErrNoToken},
		{"non-object parent", `{"hooks":"x"}`, "hooks.token", "", domain.ErrNoToken},
		{"non-string token", `{"hooks":{"token":42}}`, "hooks.token", "", domain.ErrNoToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadToken(writeTokenFile(t, tt.content), tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadToken_MissingFile(t *testing.T) {
	_, err := ReadToken(filepath.Join(t.TempDir(), "nope.json"), "hooks.token")
	assert.ErrorIs(t, err, domain.ErrNoToken)

	_, err = ReadToken("", "hooks.token")
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestReadToken_Malformed(t *testing.T) {
	_, err := ReadToken(writeTokenFile(t, "{"), "hooks.token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoToken)
}

func TestClient_Post(t *testing.T) {
	var (
		gotAuth    string
		gotPayload Payload
		gotMethod  string
		gotPath    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClientWithURL(srv.URL+"/hooks/wake", "s3cret", time.Second)
	require.NoError(t, client.Post(context.Background(), "agent task done: task=calc-cli status=success"))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/hooks/wake", gotPath)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, Payload{Text: "agent task done: task=calc-cli status=success", Mode: "now"}, gotPayload)
}

func TestClient_Post_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClientWithURL(srv.URL, "wrong", time.Second).Post(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestClient_Post_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, NewClientWithURL(url, "t", time.Second).Post(context.Background(), "x"))
}

func TestNewClient_URL(t *testing.T) {
	c := NewClient("127.0.0.1", 18789, "/hooks/wake", "t", time.Second)
	assert.Equal(t, "http://127.0.0.1:18789/hooks/wake", c.URL())
}

func TestDetached_Signal(t *testing.T) {
	tokenFile := writeTokenFile(t, `{"hooks":{"token":"s3cret"}}`)

	var started *exec.Cmd
	d := NewDetached(tokenFile, "hooks.token", "--dir", "/state")
	d.executable = "/usr/local/bin/agent-dispatch"
	d.start = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	require.NoError(t, d.Signal(context.Background(), domain.WakeSignal{Text: "agent task done"}))
	require.NotNil(t, started)
	assert.Equal(t, []string{
		"/usr/local/bin/agent-dispatch", "_wake", "--dir", "/state", "--text", "agent task done",
	}, started.Args)
}

func TestDetached_Signal_NoToken(t *testing.T) {
	d := NewDetached(filepath.Join(t.TempDir(), "missing.json"), "hooks.token")
	d.start = func(*exec.Cmd) error {
		t.Fatal("child must not be spawned without a token")
		return nil
	}

	assert.ErrorIs(t, d.Signal(context.Background(), domain.WakeSignal{Text: "x"}), domain.ErrNoToken)
}
