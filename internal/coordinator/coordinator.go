// Package coordinator runs the render coordinator: the single
// goroutine that owns view state, ticks at ~60 Hz, drains the input
// producer's and search worker's channels non-blockingly, and issues
// the next round of commands. Modeled on the teacher's
// REPLModel.Update big type-switch (repl/app.go), but hand-rolled as a
// plain select/for loop instead of a tea.Model — see SPEC_FULL.md
// §4.5 for why bubbletea's own event loop isn't used here.
package coordinator

import (
	"time"

	"github.com/nlindqvist/bigless/internal/input"
	"github.com/nlindqvist/bigless/internal/protocol"
)

const tickInterval = 16 * time.Millisecond

// Snapshot is the immutable view of state a Renderer draws from. The
// coordinator is the only writer of the state Snapshot is built from.
type Snapshot struct {
	TopByte       uint64
	Lines         []string
	Highlights    [][]protocol.Span
	AtEOF         bool
	FileSize      uint64
	Width, Height int
	Mode          input.Mode
	SearchBuffer  string
	SearchOptions protocol.SearchOptions
	StatusMessage string
	StatusIsError bool
}

// Renderer draws one Snapshot. The coordinator depends only on this
// interface; internal/render provides the concrete terminal
// implementation.
type Renderer interface {
	Draw(Snapshot) error
}

// Canceller lets the coordinator reach a search worker's live
// cancellation token directly, bypassing the command channel so that
// Ctrl+C-during-search and Shutdown can interrupt a scan the worker's
// own single goroutine is currently blocked inside (spec.md §4.4, §5).
// internal/worker.Worker implements this.
type Canceller interface {
	CancelActive()
}

// Config tunes the coordinator's defaults.
type Config struct {
	PageLines   int
	Width       int
	Height      int
	SmartCase   bool
	HistorySize int
}

// Coordinator owns view state and drives the worker/renderer.
type Coordinator struct {
	cfg      Config
	renderer Renderer
	worker   Canceller

	commands  chan<- protocol.Command
	responses <-chan protocol.Response
	actions   <-chan input.Action

	ids protocol.RequestIDSource

	topByte    uint64
	lines      []string
	lineStarts []uint64
	highlights [][]protocol.Span
	atEOF      bool
	fileSize   uint64
	width      int
	height     int

	mode         input.Mode
	searchBuffer []rune
	searchCtx    protocol.SearchContext
	status       string
	statusErr    bool

	lastViewportReq protocol.RequestID
	lastSearchReq   protocol.RequestID

	history *searchHistory
	done    chan struct{}
}

// New returns a Coordinator wired to commands/responses/actions. worker
// is the same Worker running on the other end of commands/responses;
// it is used only for its synchronous CancelActive method, never for
// anything channel-shaped. worker may be nil in tests that don't
// exercise cancellation.
func New(cfg Config, renderer Renderer, commands chan<- protocol.Command, responses <-chan protocol.Response, actions <-chan input.Action, worker Canceller) *Coordinator {
	if cfg.PageLines <= 0 {
		cfg.PageLines = cfg.Height
	}
	c := &Coordinator{
		cfg:       cfg,
		renderer:  renderer,
		worker:    worker,
		commands:  commands,
		responses: responses,
		actions:   actions,
		width:     cfg.Width,
		height:    cfg.Height,
		history:   newSearchHistory(cfg.HistorySize),
		done:      make(chan struct{}),
		searchCtx: protocol.SearchContext{Options: protocol.SearchOptions{SmartCase: cfg.SmartCase}},
	}
	c.requestViewport(protocol.AbsoluteAnchor(0))
	return c
}

// Run ticks at tickInterval until an input.ActionQuit is observed or
// Stop is called, then sends Shutdown to the worker and returns.
func (c *Coordinator) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.shutdown()
			return
		case <-ticker.C:
			c.drain()
			if err := c.renderer.Draw(c.snapshot()); err != nil {
				c.status = err.Error()
				c.statusErr = true
			}
		}
	}
}

// Stop ends Run from outside the input/quit-key path, e.g. on a
// fatal error surfaced elsewhere in the process.
func (c *Coordinator) Stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// drain non-blockingly empties both inbound channels once per tick,
// applying every action/response that's ready without waiting for
// more to arrive.
func (c *Coordinator) drain() {
	for {
		select {
		case act, ok := <-c.actions:
			if !ok {
				return
			}
			if c.applyAction(act) {
				c.Stop()
				return
			}
			continue
		default:
		}
		select {
		case resp, ok := <-c.responses:
			if !ok {
				return
			}
			c.applyResponse(resp)
			continue
		default:
		}
		return
	}
}

func (c *Coordinator) shutdown() {
	if c.worker != nil {
		c.worker.CancelActive()
	}
	select {
	case c.commands <- protocol.Shutdown{}:
	default:
	}
}

func (c *Coordinator) snapshot() Snapshot {
	return Snapshot{
		TopByte:       c.topByte,
		Lines:         c.lines,
		Highlights:    c.highlights,
		AtEOF:         c.atEOF,
		FileSize:      c.fileSize,
		Width:         c.width,
		Height:        c.height,
		Mode:          c.mode,
		SearchBuffer:  string(c.searchBuffer),
		SearchOptions: c.searchCtx.Options,
		StatusMessage: c.status,
		StatusIsError: c.statusErr,
	}
}

// applyAction returns true when the action means the session should
// end (ActionQuit).
func (c *Coordinator) applyAction(act input.Action) bool {
	if act.Kind == input.ActionResize {
		c.width, c.height = act.Width, act.Height
		c.cfg.PageLines = c.height
		return false
	}

	if c.mode != input.ModeNormal {
		return c.applyEntryModeAction(act)
	}
	return c.applyNormalAction(act)
}

func (c *Coordinator) applyNormalAction(act input.Action) bool {
	pageLines := c.cfg.PageLines
	switch act.Kind {
	case input.ActionQuit:
		return true
	case input.ActionScroll:
		delta := int64(act.ScrollBy)
		if !act.ScrollDown {
			delta = -delta
		}
		c.requestViewport(protocol.RelativeAnchor(c.topByte, delta))
	case input.ActionPageDown:
		c.requestViewport(protocol.RelativeAnchor(c.topByte, int64(pageLines)))
	case input.ActionPageUp:
		c.requestViewport(protocol.RelativeAnchor(c.topByte, -int64(pageLines)))
	case input.ActionGoToStart:
		c.requestViewport(protocol.AbsoluteAnchor(0))
	case input.ActionGoToEnd:
		c.requestViewport(protocol.EndOfFileAnchor())
	case input.ActionEnterSearch:
		c.mode = input.ModeSearchForward
		if act.Rune == '?' {
			c.mode = input.ModeSearchBackward
		}
		c.searchBuffer = nil
		c.history.ResetNavigation()
	case input.ActionPercentJump:
		c.mode = input.ModePercentJump
		c.searchBuffer = nil
	case input.ActionNextMatch:
		c.requestNavigate(protocol.Next)
	case input.ActionPreviousMatch:
		c.requestNavigate(protocol.Previous)
	case input.ActionToggleCaseSensitive:
		c.searchCtx.Options.SmartCase = false
		c.searchCtx.Options.CaseSensitive = !c.searchCtx.Options.CaseSensitive
		c.pushSearchContext()
	case input.ActionToggleRegex:
		c.searchCtx.Options.Regex = !c.searchCtx.Options.Regex
		c.pushSearchContext()
	case input.ActionToggleWholeWord:
		c.searchCtx.Options.WholeWord = !c.searchCtx.Options.WholeWord
		c.pushSearchContext()
	case input.ActionCancelSearch:
		if c.worker != nil {
			c.worker.CancelActive()
		}
	}
	return false
}

func (c *Coordinator) applyEntryModeAction(act input.Action) bool {
	switch act.Kind {
	case input.ActionSearchRune:
		c.searchBuffer = append(c.searchBuffer, act.Rune)
	case input.ActionSearchBackspace:
		if len(c.searchBuffer) > 0 {
			c.searchBuffer = c.searchBuffer[:len(c.searchBuffer)-1]
		}
	case input.ActionCancelMode:
		c.mode = input.ModeNormal
		c.searchBuffer = nil
	case input.ActionCommitSearch:
		c.commitEntryMode()
	}
	return false
}

func (c *Coordinator) commitEntryMode() {
	text := string(c.searchBuffer)
	mode := c.mode
	c.mode = input.ModeNormal
	c.searchBuffer = nil

	switch mode {
	case input.ModeSearchForward, input.ModeSearchBackward:
		if text == "" {
			return
		}
		c.history.Add(text)
		c.searchCtx.Pattern = text
		if mode == input.ModeSearchForward {
			c.searchCtx.Direction = protocol.Forward
		} else {
			c.searchCtx.Direction = protocol.Backward
		}
		c.requestSearch()
	case input.ModePercentJump:
		pct := parsePercent(text)
		b := uint64(0)
		if c.fileSize > 0 {
			b = c.fileSize * uint64(pct) / 100
		}
		c.requestViewport(protocol.AbsoluteAnchor(b))
	}
}

func parsePercent(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if n > 100 {
		n = 100
	}
	return n
}

func (c *Coordinator) pushSearchContext() {
	select {
	case c.commands <- protocol.UpdateSearchContext{Context: c.searchCtx}:
	default:
	}
}

func (c *Coordinator) requestViewport(anchor protocol.Anchor) {
	id := c.ids.Next()
	c.lastViewportReq = id
	var hl *protocol.HighlightSpec
	if c.searchCtx.Pattern != "" {
		hl = &protocol.HighlightSpec{Pattern: c.searchCtx.Pattern, Options: c.searchCtx.Options}
	}
	c.sendCommand(protocol.LoadViewport{
		RequestID: id,
		Anchor:    anchor,
		PageLines: c.cfg.PageLines,
		Width:     c.width,
		Highlight: hl,
	})
}

// requestSearch issues ExecuteSearch from the top of the current
// viewport for a forward search, or from the last visible line's byte
// offset for a backward one (spec.md §4.6).
func (c *Coordinator) requestSearch() {
	id := c.ids.Next()
	c.lastSearchReq = id
	origin := c.topByte
	if c.searchCtx.Direction == protocol.Backward && len(c.lineStarts) > 0 {
		origin = c.lineStarts[len(c.lineStarts)-1]
	}
	c.sendCommand(protocol.ExecuteSearch{RequestID: id, Context: c.searchCtx, Origin: origin})
}

func (c *Coordinator) requestNavigate(t protocol.Traversal) {
	if c.searchCtx.Pattern == "" {
		return
	}
	id := c.ids.Next()
	c.lastSearchReq = id
	c.sendCommand(protocol.NavigateMatch{RequestID: id, Traversal: t})
}

// sendCommand drops the send rather than blocking the render tick; a
// full command channel means the worker is already behind. The command
// being sent is the one dropped, whatever its kind: a dropped
// LoadViewport is superseded by the next one, but a dropped
// ExecuteSearch or NavigateMatch is lost and gets no response.
func (c *Coordinator) sendCommand(cmd protocol.Command) {
	select {
	case c.commands <- cmd:
	default:
	}
}

func (c *Coordinator) applyResponse(resp protocol.Response) {
	switch r := resp.(type) {
	case protocol.ViewportLoaded:
		if r.RequestID != c.lastViewportReq {
			return // superseded by a newer LoadViewport; discard
		}
		c.topByte = r.TopByte
		c.lines = r.Lines
		c.lineStarts = r.LineStarts
		c.highlights = r.Highlights
		c.atEOF = r.AtEOF
		c.fileSize = r.FileSize
	case protocol.SearchCompleted:
		if r.RequestID != c.lastSearchReq {
			return // superseded by a newer search; discard
		}
		c.status = r.Message
		c.statusErr = false
		if r.MatchByte != nil {
			c.requestViewport(protocol.AbsoluteAnchor(*r.MatchByte))
		}
	case protocol.ErrorResponse:
		if r.RequestID != c.lastViewportReq && r.RequestID != c.lastSearchReq {
			return
		}
		c.status = r.Message
		c.statusErr = true
	}
}
