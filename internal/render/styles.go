// Package render draws coordinator.Snapshot values to the terminal.
// Styling is ported from the teacher's internal/tui/styles.go palette;
// cursor positioning and screen clears are the same plain ANSI-string
// technique tinkerator-lined's input.go uses, since no escape-sequence
// library in the pack has a grounded call site.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#2F71F2", Dark: "#4A90FF"}
	colorError   = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#FF4672"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
)

// styleSet holds the styles bound to one lipgloss.Renderer. noColor
// binds them to a termenv.Ascii profile, the same device --no-color
// uses to flatten the teacher's own StyleWarning/StyleError palette.
type styleSet struct {
	highlight lipgloss.Style
	status    lipgloss.Style
	statusErr lipgloss.Style
	help      lipgloss.Style
}

func newStyleSet(out io.Writer, noColor bool) styleSet {
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return styleSet{
		highlight: r.NewStyle().Foreground(colorPrimary).Bold(true).Reverse(true),
		status:    r.NewStyle().Foreground(colorDim),
		statusErr: r.NewStyle().Foreground(colorError).Bold(true),
		help:      r.NewStyle().Foreground(colorDim),
	}
}
