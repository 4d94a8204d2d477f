package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Colors defines the color palette for terminal output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Text    lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
	Text:    lipgloss.Color("#DFE6E9"), // Light gray
}

// Styles contains the lipgloss styles used by the show command.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Section lipgloss.Style
	Output  lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Unknown lipgloss.Style
}

// newStyles creates styles bound to w, so color is emitted only when w is
// a terminal.
func newStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(Colors.Primary),
		Label:   r.NewStyle().Foreground(Colors.Muted).Width(10),
		Value:   r.NewStyle().Foreground(Colors.Text),
		Muted:   r.NewStyle().Foreground(Colors.Muted),
		Section: r.NewStyle().Bold(true).Foreground(Colors.Muted).MarginTop(1),
		Output: r.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Colors.Muted).
			PaddingLeft(1),
		Success: r.NewStyle().Bold(true).Foreground(Colors.Success),
		Failure: r.NewStyle().Bold(true).Foreground(Colors.Error),
		Unknown: r.NewStyle().Bold(true).Foreground(Colors.Warning),
	}
}

// OutcomeStyle returns the style for an outcome.
func (s Styles) OutcomeStyle(o domain.Outcome) lipgloss.Style {
	switch o {
	case domain.OutcomeSuccess:
		return s.Success
	case domain.OutcomeFailure:
		return s.Failure
	default:
		return s.Unknown
	}
}
