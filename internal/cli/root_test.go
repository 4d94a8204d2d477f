package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-dispatch/internal/app"
	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/infra/logging"
	"github.com/runoshun/agent-dispatch/internal/testutil"
)

// testEnv is a container wired to mocks plus the captured output streams.
type testEnv struct {
	c         *app.Container
	tasks     *testutil.MockTaskRepository
	captures  *testutil.MockCaptureStore
	results   *testutil.MockResultRepository
	callbacks *testutil.MockCallbackRepository
	messenger *testutil.MockMessenger
	waker     *testutil.MockWakeSignaler
	headless  *testutil.MockAgentRunner
	clock     *testutil.MockClock
	opts      *app.Options
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
}

// newTestEnv creates a container with mock dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testutil.MockClock{NowTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tasks := testutil.NewMockTaskRepository()
	tasks.Clock = clock

	cfg := domain.NewDefaultConfig()
	// Any binary on PATH passes the lookup; the mock runner never execs it.
	cfg.Agent.Bin = "sh"

	te := &testEnv{
		tasks:     tasks,
		captures:  testutil.NewMockCaptureStore(),
		results:   &testutil.MockResultRepository{},
		callbacks: testutil.NewMockCallbackRepository(),
		messenger: testutil.NewMockMessenger(),
		waker:     &testutil.MockWakeSignaler{},
		headless:  &testutil.MockAgentRunner{},
		clock:     clock,
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	}
	te.c = &app.Container{
		Tasks:       te.tasks,
		Captures:    te.captures,
		Results:     te.results,
		Callbacks:   te.callbacks,
		Gate:        testutil.NewMockDedupGate(),
		Messenger:   te.messenger,
		Waker:       te.waker,
		Files:       &testutil.MockFileLister{},
		Metrics:     testutil.NewMockMetrics(),
		Headless:    te.headless,
		Interactive: &testutil.MockAgentRunner{},
		Clock:       clock,
		Logger:      logging.New(logging.Options{}),
		AppConfig:   cfg,
		Stdout:      te.stdout,
		Config:      app.Config{WorkDir: t.TempDir(), StoreDir: t.TempDir()},
	}
	return te
}

// execute runs the root command with args.
func (te *testEnv) execute(args ...string) error {
	root := NewRootCommand(func(opts app.Options) (*app.Container, error) {
		te.opts = &opts
		return te.c, nil
	}, "test")
	root.SetOut(te.stdout)
	root.SetErr(te.stderr)
	root.SetArgs(args)
	return root.Execute()
}

func TestRootCommand_Version(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.execute("--version"))
	assert.Contains(t, te.stdout.String(), "test")
}

func TestRootCommand_PrintsConfigWarnings(t *testing.T) {
	te := newTestEnv(t)
	te.c.AppConfig.Warnings = []string{"unknown key notify.foo"}

	require.NoError(t, te.execute("show"))
	assert.Contains(t, te.stderr.String(), "Warning: unknown key notify.foo")
}

func TestRootCommand_PassesGlobalFlags(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.execute("--dir", "/tmp/results", "-C", "/tmp/work", "show"))
	require.NotNil(t, te.opts)
	assert.Equal(t, "/tmp/results", te.opts.StoreDir)
	assert.Equal(t, "/tmp/work", te.opts.WorkDir)
	assert.Equal(t, te.stdout, te.opts.Stdout)
}

func TestRootCommand_BuilderError(t *testing.T) {
	root := NewRootCommand(func(app.Options) (*app.Container, error) {
		return nil, errors.New("bad config")
	}, "test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"show"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestRootCommand_WakeIsHidden(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, te.execute("--help"))
	assert.NotContains(t, te.stdout.String(), wakeCommandName)
	assert.Contains(t, te.stdout.String(), "Dispatch Commands:")
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "boom", (&ExitError{Code: 3, Err: cause}).Error())
	assert.Equal(t, "exit status 4", (&ExitError{Code: 4}).Error())
	assert.ErrorIs(t, &ExitError{Code: 3, Err: cause}, cause)
}
