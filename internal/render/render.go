package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/nlindqvist/bigless/internal/coordinator"
	"github.com/nlindqvist/bigless/internal/input"
)

// TerminalRenderer draws a coordinator.Snapshot to out, an ANSI
// terminal. It holds no view state of its own: every field it reads
// comes from the Snapshot passed to Draw, matching the coordinator's
// sole ownership of view state (spec.md §5).
type TerminalRenderer struct {
	out    io.Writer
	keys   keyMap
	styles styleSet
}

// New returns a TerminalRenderer writing to out. noColor flattens the
// highlight/status/help palette to plain text, the same device the
// teacher's --no-color flag implies for its own lipgloss styles.
func New(out io.Writer, noColor bool) *TerminalRenderer {
	return &TerminalRenderer{out: out, keys: defaultKeyMap(), styles: newStyleSet(out, noColor)}
}

// Draw renders one frame: a screen clear, page_lines of content (each
// truncated to the snapshot's width and highlighted per its Span
// list), and a two-line footer of status text plus the keybinding
// help line.
func (r *TerminalRenderer) Draw(s coordinator.Snapshot) error {
	var b strings.Builder

	b.WriteString("\033[H\033[2J")

	contentRows := s.Height - 2
	if contentRows < 0 {
		contentRows = 0
	}
	for i := 0; i < contentRows; i++ {
		if i > 0 {
			b.WriteString("\r\n")
		}
		if i >= len(s.Lines) {
			b.WriteString("~")
			continue
		}
		line := s.Lines[i]
		var highlights []struct{ Start, End int }
		if i < len(s.Highlights) {
			for _, sp := range s.Highlights[i] {
				highlights = append(highlights, struct{ Start, End int }{sp.Start, sp.End})
			}
		}
		b.WriteString(r.renderLine(line, highlights, s.Width))
	}

	b.WriteString("\r\n")
	b.WriteString(r.statusLine(s))
	b.WriteString("\r\n")
	b.WriteString(r.styles.help.Render(r.keys.helpLine()))

	fmt.Fprintf(&b, "\033[%d;1H", s.Height)

	_, err := io.WriteString(r.out, b.String())
	return err
}

// renderLine truncates line to width runes and wraps any highlight
// spans (rune-indexed, per internal/search) in the highlight style.
func (r *TerminalRenderer) renderLine(line string, highlights []struct{ Start, End int }, width int) string {
	runes := []rune(line)
	if width > 0 && len(runes) > width {
		runes = runes[:width]
	}
	if len(highlights) == 0 {
		return string(runes)
	}

	var b strings.Builder
	pos := 0
	for _, h := range highlights {
		start, end := h.Start, h.End
		if start >= len(runes) {
			continue
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start < pos {
			continue
		}
		b.WriteString(string(runes[pos:start]))
		b.WriteString(r.styles.highlight.Render(string(runes[start:end])))
		pos = end
	}
	if pos < len(runes) {
		b.WriteString(string(runes[pos:]))
	}
	return b.String()
}

func (r *TerminalRenderer) statusLine(s coordinator.Snapshot) string {
	switch s.Mode {
	case input.ModeSearchForward:
		return "/" + s.SearchBuffer
	case input.ModeSearchBackward:
		return "?" + s.SearchBuffer
	case input.ModePercentJump:
		return "%" + s.SearchBuffer
	}
	if s.StatusMessage != "" {
		style := r.styles.status
		if s.StatusIsError {
			style = r.styles.statusErr
		}
		return style.Render(statusIndicator(s) + "  " + s.StatusMessage)
	}
	return r.styles.status.Render(statusIndicator(s))
}

// statusIndicator renders the trailing percentage-or-(END) marker:
// 100% for an empty file (there's nothing to scroll through), (END)
// once the last line is in view, otherwise the truncated
// top_byte/file_size percentage.
func statusIndicator(s coordinator.Snapshot) string {
	if s.FileSize == 0 {
		return "100%"
	}
	if s.AtEOF {
		return "(END)"
	}
	pct := int(float64(s.TopByte) / float64(s.FileSize) * 100)
	return fmt.Sprintf("%d%%", pct)
}
