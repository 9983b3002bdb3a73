package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_NormalModeScroll(t *testing.T) {
	consumed, act, ok := decode([]byte("j"), ModeNormal)
	require.True(t, ok)
	assert.Equal(t, 1, consumed)
	assert.Equal(t, ActionScroll, act.Kind)
	assert.True(t, act.ScrollDown)
}

func TestDecode_ArrowKeySequence(t *testing.T) {
	consumed, act, ok := decode([]byte("\033[A"), ModeNormal)
	require.True(t, ok)
	assert.Equal(t, 3, consumed)
	assert.Equal(t, ActionScroll, act.Kind)
	assert.False(t, act.ScrollDown)
}

func TestDecode_PartialEscapeSequenceWaits(t *testing.T) {
	consumed, _, ok := decode([]byte("\033["), ModeNormal)
	assert.Equal(t, 0, consumed)
	assert.False(t, ok)
}

func TestDecode_LoneEscapeWaits(t *testing.T) {
	consumed, _, ok := decode([]byte("\033"), ModeNormal)
	assert.Equal(t, 0, consumed)
	assert.False(t, ok)
}

func TestDecode_UnrecognizedEscapeCancels(t *testing.T) {
	consumed, act, ok := decode([]byte("\033Xrest"), ModeNormal)
	require.True(t, ok)
	assert.Equal(t, 1, consumed)
	assert.Equal(t, ActionCancelMode, act.Kind)
}

func TestDecode_CtrlCInNormalModeCancelsSearch(t *testing.T) {
	_, act, ok := decode([]byte{0x03}, ModeNormal)
	require.True(t, ok)
	assert.Equal(t, ActionCancelSearch, act.Kind)
}

func TestDecode_CtrlCInPromptModeCancelsPromptNotQuit(t *testing.T) {
	for _, mode := range []Mode{ModeSearchForward, ModeSearchBackward, ModePercentJump, ModeCommand} {
		_, act, ok := decode([]byte{0x03}, mode)
		require.True(t, ok)
		assert.Equal(t, ActionCancelMode, act.Kind)
	}
}

func TestDecode_SearchModeLiteralRune(t *testing.T) {
	consumed, act, ok := decode([]byte("x"), ModeSearchForward)
	require.True(t, ok)
	assert.Equal(t, 1, consumed)
	assert.Equal(t, ActionSearchRune, act.Kind)
	assert.Equal(t, 'x', act.Rune)
}

func TestDecode_SearchModeEnterCommits(t *testing.T) {
	_, act, ok := decode([]byte("\r"), ModeSearchForward)
	require.True(t, ok)
	assert.Equal(t, ActionCommitSearch, act.Kind)
}

func TestDecode_SearchModeBackspace(t *testing.T) {
	_, act, ok := decode([]byte{0x7f}, ModeSearchForward)
	require.True(t, ok)
	assert.Equal(t, ActionSearchBackspace, act.Kind)
}

func TestDecode_EnterSearchForwardAndBackward(t *testing.T) {
	_, fwd, _ := decode([]byte("/"), ModeNormal)
	assert.Equal(t, ActionEnterSearch, fwd.Kind)
	assert.Equal(t, '/', fwd.Rune)

	_, back, _ := decode([]byte("?"), ModeNormal)
	assert.Equal(t, ActionEnterSearch, back.Kind)
	assert.Equal(t, '?', back.Rune)
}

func TestProducer_DispatchEntersSearchMode(t *testing.T) {
	actions := make(chan Action, 8)
	p := New(actions)
	p.feed([]byte("/"))
	assert.Equal(t, ModeSearchForward, p.mode)
	p.feed([]byte("err\r"))
	assert.Equal(t, ModeNormal, p.mode)

	var got []Action
	for len(actions) > 0 {
		got = append(got, <-actions)
	}
	require.Len(t, got, 5) // EnterSearch, e, r, r, CommitSearch
	assert.Equal(t, ActionEnterSearch, got[0].Kind)
	assert.Equal(t, ActionCommitSearch, got[4].Kind)
}

func TestProducer_CoalescesScrollBurst(t *testing.T) {
	actions := make(chan Action, 8)
	p := New(actions)
	p.feed([]byte("jjj"))

	select {
	case <-actions:
		t.Fatal("scroll should be coalesced, not sent immediately")
	default:
	}
	assert.True(t, p.coalescing)
	assert.Equal(t, 3, p.coalesceN)

	// Run() owns the actual coalesce timer; tests drive the flush
	// directly to avoid depending on wall-clock timing.
	p.flushCoalesced()
	act := <-actions
	assert.Equal(t, ActionScroll, act.Kind)
	assert.Equal(t, 3, act.ScrollBy)
}

func TestProducer_DirectionChangeFlushesCoalesced(t *testing.T) {
	actions := make(chan Action, 8)
	p := New(actions)
	p.feed([]byte("jjk"))

	act := <-actions
	assert.Equal(t, ActionScroll, act.Kind)
	assert.True(t, act.ScrollDown)
	assert.Equal(t, 2, act.ScrollBy)
}
