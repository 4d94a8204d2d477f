package domain

import "strings"

// HeadlessArgs returns the argv of a non-interactive agent run.
// Format: <bin> -p --trust [--output-format F] [--model M] [--workspace W] [--yolo] [--mode M] <prompt> [extra...]
func HeadlessArgs(run AgentRun) []string {
	args := []string{run.Bin, "-p", "--trust"}
	if run.OutputFormat != "" {
		args = append(args, "--output-format", run.OutputFormat)
	}
	if run.Model != "" {
		args = append(args, "--model", run.Model)
	}
	if ws := run.workspace(); ws != "" {
		args = append(args, "--workspace", ws)
	}
	if run.Yolo {
		args = append(args, "--yolo")
	}
	if run.Mode != "" {
		args = append(args, "--mode", run.Mode)
	}
	if run.Prompt != "" {
		args = append(args, run.Prompt)
	}
	return append(args, run.Extra...)
}

// InteractiveArgs returns the argv of an agent launched in a terminal.
// The prompt is not included; it is typed into the session instead.
func InteractiveArgs(run AgentRun) []string {
	args := []string{run.Bin}
	if run.Model != "" {
		args = append(args, "--model", run.Model)
	}
	if run.Yolo {
		args = append(args, "--yolo")
	}
	if run.Mode != "" {
		args = append(args, "--mode", run.Mode)
	}
	if ws := run.workspace(); ws != "" {
		args = append(args, "--workspace", ws)
	}
	return append(args, run.Extra...)
}

// ResolveRunMode turns auto into a concrete mode based on the prompt.
func ResolveRunMode(mode RunMode, prompt string) RunMode {
	if mode == RunModeAuto || mode == "" {
		if HasSlashCommands(prompt) {
			return RunModeInteractive
		}
		return RunModeHeadless
	}
	return mode
}

// PromptLines returns the non-blank lines of prompt in order.
func PromptLines(prompt string) []string {
	var lines []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (r AgentRun) workspace() string {
	if r.Workspace != "" {
		return r.Workspace
	}
	return r.Dir
}

// ShellQuote quotes s for POSIX shells.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellJoin quotes and joins argv into a single shell command line.
func ShellJoin(parts []string) string {
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		quoted = append(quoted, ShellQuote(part))
	}
	return strings.Join(quoted, " ")
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("@%+=:,./-_", r)
}
