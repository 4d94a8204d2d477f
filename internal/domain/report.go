package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReportHeader is the first line of every full report.
const ReportHeader = "🤖 Coding agent task finished"

// Report holds the collected facts rendered into notification messages.
// Empty fields are omitted from the rendered output.
type Report struct {
	ExitCode         *int
	TaskName         string
	WorkingDirectory string
	Duration         string
	OutputTail       string
	TestLines        []string
	Files            []string
	ChangedFiles     []string
}

// Outcome returns the outcome derived from the exit code.
func (r Report) Outcome() Outcome {
	return OutcomeOf(r.ExitCode)
}

// Full renders the full multi-section report sent to the primary recipient.
func (r Report) Full() string {
	outcome := r.Outcome()
	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, "📋 Task: %s\n", r.taskName())
	fmt.Fprintf(&b, "%s Status: %s\n", outcome.Marker(), outcome)
	if outcome == OutcomeFailure {
		fmt.Fprintf(&b, "🔢 Exit code: %d\n", *r.ExitCode)
	}
	if r.WorkingDirectory != "" {
		fmt.Fprintf(&b, "📁 Directory: %s\n", r.WorkingDirectory)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "⏱️ Duration: %s\n", r.Duration)
	}
	writeSection(&b, "🧪 Tests:", r.TestLines)
	writeSection(&b, "📂 Files:", r.Files)
	writeSection(&b, "📝 Changed:", r.ChangedFiles)
	if tail := strings.TrimSpace(r.OutputTail); tail != "" {
		b.WriteString("\n📄 Output (tail):\n")
		b.WriteString(tail)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatusLine renders the short message sent to callback recipients.
// Format: <marker> <name>: <outcome>[ (<duration>)]
func (r Report) StatusLine() string {
	outcome := r.Outcome()
	line := fmt.Sprintf("%s %s: %s", outcome.Marker(), r.taskName(), outcome)
	if outcome == OutcomeFailure {
		line += fmt.Sprintf(" (exit %d)", *r.ExitCode)
	}
	if r.Duration != "" {
		line += fmt.Sprintf(" [%s]", r.Duration)
	}
	return line
}

// WakeText renders the compact payload of the wake signal.
func (r Report) WakeText(recipient, timestamp string) string {
	text := fmt.Sprintf("agent task done: task=%s status=%s", r.taskName(), r.Outcome())
	if recipient != "" {
		text += " recipient=" + recipient
	}
	return text + " ts=" + timestamp
}

func (r Report) taskName() string {
	if r.TaskName == "" {
		return UnknownTaskName
	}
	return r.TaskName
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(l)
		b.WriteString("\n")
	}
}

// TailRunes returns the last n runes of s. Strings that are already short
// enough are returned unchanged.
func TailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	// The byte length bounds the rune count, so a short byte length skips
	// the count.
	if len(s) <= n || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
