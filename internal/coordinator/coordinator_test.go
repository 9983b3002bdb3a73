package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlindqvist/bigless/internal/input"
	"github.com/nlindqvist/bigless/internal/protocol"
)

type fakeRenderer struct {
	snapshots chan Snapshot
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{snapshots: make(chan Snapshot, 64)}
}

func (f *fakeRenderer) Draw(s Snapshot) error {
	select {
	case f.snapshots <- s:
	default:
	}
	return nil
}

// fakeCanceller stands in for a worker.Worker in tests, counting how
// many times the coordinator reached for it.
type fakeCanceller struct {
	calls int
}

func (f *fakeCanceller) CancelActive() { f.calls++ }

func newTestCoordinator() (*Coordinator, chan protocol.Command, chan protocol.Response, chan input.Action, *fakeRenderer) {
	c, cmds, resps, acts, r, _ := newTestCoordinatorWithCanceller()
	return c, cmds, resps, acts, r
}

func newTestCoordinatorWithCanceller() (*Coordinator, chan protocol.Command, chan protocol.Response, chan input.Action, *fakeRenderer, *fakeCanceller) {
	cmds := make(chan protocol.Command, protocol.ChannelCapacity)
	resps := make(chan protocol.Response, protocol.ChannelCapacity)
	acts := make(chan input.Action, protocol.ChannelCapacity)
	r := newFakeRenderer()
	fc := &fakeCanceller{}
	c := New(Config{PageLines: 20, Width: 80, Height: 20}, r, cmds, resps, acts, fc)
	return c, cmds, resps, acts, r, fc
}

func TestCoordinator_InitialLoadViewport(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	_ = c
	select {
	case cmd := <-cmds:
		lv, ok := cmd.(protocol.LoadViewport)
		require.True(t, ok)
		assert.Equal(t, protocol.AnchorAbsolute, lv.Anchor.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected an initial LoadViewport command")
	}
}

func TestCoordinator_StaleViewportResponseDiscarded(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	first := (<-cmds).(protocol.LoadViewport)

	c.requestViewport(protocol.AbsoluteAnchor(100))
	second := (<-cmds).(protocol.LoadViewport)
	require.NotEqual(t, first.RequestID, second.RequestID)

	// The stale (first) response must not overwrite state set by the
	// second, newer request.
	c.applyResponse(protocol.ViewportLoaded{RequestID: first.RequestID, TopByte: 0, Lines: []string{"stale"}})
	assert.Empty(t, c.lines)

	c.applyResponse(protocol.ViewportLoaded{RequestID: second.RequestID, TopByte: 100, Lines: []string{"fresh"}})
	assert.Equal(t, []string{"fresh"}, c.lines)
	assert.EqualValues(t, 100, c.topByte)
}

func TestCoordinator_StaleSearchResponseDiscarded(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	<-cmds // initial viewport load

	c.searchCtx.Pattern = "x"
	c.requestSearch()
	first := (<-cmds).(protocol.ExecuteSearch)
	c.requestSearch()
	second := (<-cmds).(protocol.ExecuteSearch)

	c.applyResponse(protocol.SearchCompleted{RequestID: first.RequestID, Message: "stale"})
	assert.Empty(t, c.status)

	c.applyResponse(protocol.SearchCompleted{RequestID: second.RequestID, Message: "fresh"})
	assert.Equal(t, "fresh", c.status)
}

func TestCoordinator_ErrorResponseMarksStatusAsError(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	first := (<-cmds).(protocol.LoadViewport)

	c.applyResponse(protocol.ErrorResponse{RequestID: first.RequestID, Message: "boom"})
	assert.Equal(t, "boom", c.snapshot().StatusMessage)
	assert.True(t, c.snapshot().StatusIsError)

	c.searchCtx.Pattern = "x"
	c.requestSearch()
	search := (<-cmds).(protocol.ExecuteSearch)
	c.applyResponse(protocol.SearchCompleted{RequestID: search.RequestID, Message: "1 match"})
	assert.False(t, c.snapshot().StatusIsError)
}

func TestCoordinator_EnterSearchModeAndCommit(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	<-cmds // initial viewport load

	c.applyAction(input.Action{Kind: input.ActionEnterSearch, Rune: '/'})
	assert.Equal(t, input.ModeSearchForward, c.mode)

	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: 'e'})
	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: 'r'})
	c.applyAction(input.Action{Kind: input.ActionCommitSearch})

	assert.Equal(t, input.ModeNormal, c.mode)
	assert.Equal(t, "er", c.searchCtx.Pattern)
	assert.Equal(t, protocol.Forward, c.searchCtx.Direction)

	select {
	case cmd := <-cmds:
		_, ok := cmd.(protocol.ExecuteSearch)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected ExecuteSearch command")
	}
}

func TestCoordinator_PercentJumpComputesByteOffset(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	<-cmds
	c.fileSize = 1000

	c.applyAction(input.Action{Kind: input.ActionPercentJump})
	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: '5'})
	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: '0'})
	c.applyAction(input.Action{Kind: input.ActionCommitSearch})

	cmd := (<-cmds).(protocol.LoadViewport)
	assert.EqualValues(t, 500, cmd.Anchor.Absolute)
}

func TestCoordinator_CancelSearchActionCallsWorker(t *testing.T) {
	c, cmds, _, _, _, fc := newTestCoordinatorWithCanceller()
	<-cmds // initial viewport load

	c.applyAction(input.Action{Kind: input.ActionCancelSearch})
	assert.Equal(t, 1, fc.calls)
}

func TestCoordinator_ShutdownCancelsWorker(t *testing.T) {
	c, _, _, _, _, fc := newTestCoordinatorWithCanceller()

	c.shutdown()
	assert.Equal(t, 1, fc.calls)
}

func TestCoordinator_BackwardSearchOriginatesFromLastVisibleLine(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	first := (<-cmds).(protocol.LoadViewport)

	c.applyResponse(protocol.ViewportLoaded{
		RequestID:  first.RequestID,
		TopByte:    100,
		Lines:      []string{"alpha", "beta", "gamma"},
		LineStarts: []uint64{100, 110, 120},
	})

	c.applyAction(input.Action{Kind: input.ActionEnterSearch, Rune: '?'})
	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: 'x'})
	c.applyAction(input.Action{Kind: input.ActionCommitSearch})

	search := (<-cmds).(protocol.ExecuteSearch)
	assert.EqualValues(t, 120, search.Origin)
}

func TestCoordinator_ForwardSearchOriginatesFromTopByte(t *testing.T) {
	c, cmds, _, _, _ := newTestCoordinator()
	first := (<-cmds).(protocol.LoadViewport)

	c.applyResponse(protocol.ViewportLoaded{
		RequestID:  first.RequestID,
		TopByte:    100,
		Lines:      []string{"alpha", "beta"},
		LineStarts: []uint64{100, 110},
	})

	c.applyAction(input.Action{Kind: input.ActionEnterSearch, Rune: '/'})
	c.applyAction(input.Action{Kind: input.ActionSearchRune, Rune: 'x'})
	c.applyAction(input.Action{Kind: input.ActionCommitSearch})

	search := (<-cmds).(protocol.ExecuteSearch)
	assert.EqualValues(t, 100, search.Origin)
}

func TestCoordinator_QuitStopsRun(t *testing.T) {
	c, cmds, _, acts, _ := newTestCoordinator()
	<-cmds

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()
	acts <- input.Action{Kind: input.ActionQuit}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
}
