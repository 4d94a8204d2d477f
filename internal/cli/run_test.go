package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

func TestRunCommand_Prompt(t *testing.T) {
	te := newTestEnv(t)
	te.headless.Output = "ok\n5 passed\n"

	err := te.execute("run", "--name", "calc-cli", "--target", "chat:p", "--model", "gpt-5", "Build", "a", "calculator")
	require.NoError(t, err)

	require.Len(t, te.headless.Runs, 1)
	run := te.headless.Runs[0]
	assert.Equal(t, "Build a calculator", run.Prompt)
	assert.Equal(t, "gpt-5", run.Model)
	assert.Equal(t, te.c.Config.WorkDir, run.Dir)
	assert.Equal(t, "ok\n5 passed\n", te.stdout.String())

	require.Len(t, te.messenger.SentTo("chat:p"), 1)
	require.NotNil(t, te.results.Result)
	assert.Equal(t, "calc-cli", te.results.Result.TaskName)
}

func TestRunCommand_ExtraArgs(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.execute("run", "fix tests", "--", "--max-turns", "5"))
	require.Len(t, te.headless.Runs, 1)
	assert.Equal(t, "fix tests", te.headless.Runs[0].Prompt)
	assert.Equal(t, []string{"--max-turns", "5"}, te.headless.Runs[0].Extra)
}

func TestRunCommand_ExitCode(t *testing.T) {
	te := newTestEnv(t)
	te.headless.ExitCode = 3

	err := te.execute("run", "p")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	// Notification still goes out for failures
	require.NotNil(t, te.results.Result)
	assert.Equal(t, string(domain.OutcomeFailure), te.results.Result.Outcome)
}

func TestRunCommand_AgentNotFound(t *testing.T) {
	te := newTestEnv(t)
	te.c.AppConfig.Agent.Bin = "agent-dispatch-missing-binary"

	err := te.execute("run", "p")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, usecase.ExitAgentNotFound, exitErr.Code)
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
	assert.Empty(t, te.tasks.Records)
}

func TestRunCommand_RunnerFailure(t *testing.T) {
	te := newTestEnv(t)
	te.headless.Err = errors.New("pty failed")

	err := te.execute("run", "p")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestRunCommand_TaskFile(t *testing.T) {
	te := newTestEnv(t)
	dir := t.TempDir()
	content := `---
name: calc-cli
workdir: ./calc
model: gpt-5
target: chat:file
callback_group: chat:group
---
Build a calculator CLI with tests.
`
	path := filepath.Join(dir, "calc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, te.execute("run", "--file", path, "--target", "chat:flag"))

	require.Len(t, te.headless.Runs, 1)
	run := te.headless.Runs[0]
	assert.Equal(t, "Build a calculator CLI with tests.", run.Prompt)
	assert.Equal(t, filepath.Join(dir, "calc"), run.Dir)
	assert.Equal(t, "gpt-5", run.Model)

	rec := te.tasks.Records[run.TaskID]
	require.NotNil(t, rec)
	assert.Equal(t, "calc-cli", rec.Name)
	assert.Equal(t, "chat:flag", rec.Primary, "flag overrides the file")
	assert.Equal(t, "chat:group", rec.CallbackGroup)
}

func TestRunCommand_TaskFileErrors(t *testing.T) {
	te := newTestEnv(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(bad, []byte("---\nname: [\n---\nbody\n"), 0o600))

	err := te.execute("run", "--file", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidFrontmatter)

	err = te.execute("run", "--file", filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
	assert.Empty(t, te.headless.Runs)
}

func TestRunCommand_RequiresPrompt(t *testing.T) {
	te := newTestEnv(t)

	err := te.execute("run")
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
	assert.Empty(t, te.headless.Runs)
}

func TestRunCommand_InteractiveFlag(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, te.execute("run", "--run-mode", "interactive", "p"))
	assert.Empty(t, te.headless.Runs)
}
