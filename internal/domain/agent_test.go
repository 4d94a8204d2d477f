package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadlessArgs(t *testing.T) {
	tests := []struct {
		name string
		run  AgentRun
		want []string
	}{
		{
			name: "minimal uses dir as workspace",
			run:  AgentRun{Bin: "agent", Prompt: "fix it", Dir: "/w"},
			want: []string{"agent", "-p", "--trust", "--workspace", "/w", "fix it"},
		},
		{
			name: "all options",
			run: AgentRun{
				Bin: "agent", Prompt: "fix it", Dir: "/w", Workspace: "/ws",
				OutputFormat: "text", Model: "gpt-5", Yolo: true, Mode: "plan",
				Extra: []string{"--verbose"},
			},
			want: []string{
				"agent", "-p", "--trust", "--output-format", "text", "--model", "gpt-5",
				"--workspace", "/ws", "--yolo", "--mode", "plan", "fix it", "--verbose",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeadlessArgs(tt.run))
		})
	}
}

func TestInteractiveArgs(t *testing.T) {
	run := AgentRun{Bin: "agent", Prompt: "/review", Dir: "/w", Model: "gpt-5", Mode: "ask"}
	assert.Equal(t, []string{"agent", "--model", "gpt-5", "--mode", "ask", "--workspace", "/w"}, InteractiveArgs(run))
}

func TestResolveRunMode(t *testing.T) {
	assert.Equal(t, RunModeInteractive, ResolveRunMode(RunModeAuto, "/plan\nrefactor"))
	assert.Equal(t, RunModeHeadless, ResolveRunMode(RunModeAuto, "// not a command"))
	assert.Equal(t, RunModeHeadless, ResolveRunMode("", "plain"))
	assert.Equal(t, RunModeInteractive, ResolveRunMode(RunModeInteractive, "plain"))
	assert.Equal(t, RunModeHeadless, ResolveRunMode(RunModeHeadless, "/plan"))
}

func TestPromptLines(t *testing.T) {
	assert.Equal(t, []string{"/plan", "  step two"}, PromptLines("/plan\r\n\n   \n  step two\n"))
	assert.Empty(t, PromptLines(""))
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "agent -p 'fix the bug' ''", ShellJoin([]string{"agent", "-p", "fix the bug", ""}))
	assert.Equal(t, `'it'"'"'s'`, ShellQuote("it's"))
	assert.Equal(t, "/usr/bin/agent", ShellQuote("/usr/bin/agent"))
	assert.Equal(t, "'$HOME'", ShellQuote("$HOME"))
}
