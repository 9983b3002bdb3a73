package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nlindqvist/bigless/internal/coordinator"
	"github.com/nlindqvist/bigless/internal/input"
	"github.com/nlindqvist/bigless/internal/protocol"
)

func TestDraw_WritesClearAndLines(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)

	err := r.Draw(coordinator.Snapshot{
		Lines:    []string{"hello", "world"},
		Width:    80,
		Height:   10,
		FileSize: 100,
		TopByte:  50,
	})
	assert.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\033[H\033[2J"))
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
	assert.Contains(t, out, "50%")
}

func TestDraw_ShortFileShowsTildeFill(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)

	err := r.Draw(coordinator.Snapshot{
		Lines:  []string{"only line"},
		Width:  80,
		Height: 5,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "~")
}

func TestDraw_SearchModeShowsBuffer(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)

	err := r.Draw(coordinator.Snapshot{
		Width:        80,
		Height:       10,
		Mode:         input.ModeSearchForward,
		SearchBuffer: "needle",
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "/needle")
}

func TestRenderLine_TruncatesToWidth(t *testing.T) {
	r := New(&strings.Builder{}, false)
	got := r.renderLine("abcdefgh", nil, 4)
	assert.Equal(t, "abcd", got)
}

func TestRenderLine_HighlightsSpan(t *testing.T) {
	r := New(&strings.Builder{}, false)
	got := r.renderLine("foobar", []struct{ Start, End int }{{0, 3}}, 80)
	assert.Contains(t, got, "foo")
	assert.Contains(t, got, "bar")
}

func TestRenderLine_MultiByteRuneOffsets(t *testing.T) {
	// "café" has 4 runes but 5 bytes; Span is rune-indexed so this must
	// not panic or mis-slice on the multi-byte 'é'.
	r := New(&strings.Builder{}, false)
	got := r.renderLine("café", []struct{ Start, End int }{{3, 4}}, 80)
	assert.Contains(t, got, "é")
}

func TestDraw_AtEOFShowsEndMarker(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)
	err := r.Draw(coordinator.Snapshot{
		Width: 80, Height: 5, FileSize: 1000, AtEOF: true,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "(END)")
}

func TestDraw_EmptyFileAtEOFShowsFullPercent(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)
	err := r.Draw(coordinator.Snapshot{
		Width: 80, Height: 5, FileSize: 0, AtEOF: true,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "100%")
}

func TestDraw_ErrorStatusUsesErrorStyle(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)
	err := r.Draw(coordinator.Snapshot{
		Width: 80, Height: 10,
		StatusMessage: "file not found",
		StatusIsError: true,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "file not found")
}

func TestDraw_HighlightsAlignToLines(t *testing.T) {
	var buf strings.Builder
	r := New(&buf, false)
	err := r.Draw(coordinator.Snapshot{
		Lines:      []string{"match here", "no match"},
		Highlights: [][]protocol.Span{{{Start: 0, End: 5}}, nil},
		Width:      80,
		Height:     10,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "match here")
}
