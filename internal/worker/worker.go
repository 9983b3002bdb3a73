// Package worker runs the search worker: the single goroutine that
// owns the file accessor and search engine exclusively, and serves
// commands from the render coordinator one at a time over a channel,
// mirroring the teacher's Session.readLoop/pending-map shape but with
// an in-process channel pair standing in for the subprocess pipe.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nlindqvist/bigless/internal/accessor"
	"github.com/nlindqvist/bigless/internal/protocol"
	"github.com/nlindqvist/bigless/internal/search"
)

// Worker serially executes protocol.Command values against a file,
// publishing protocol.Response values as they complete.
type Worker struct {
	acc    *accessor.Handle
	engine *search.Engine
	logger *logrus.Logger

	searchCtx protocol.SearchContext
	lastMatch *uint64

	commands  <-chan protocol.Command
	responses chan<- protocol.Response

	// cancelMu guards cancelInFlight, which the worker's own goroutine
	// writes from beginCancellable/Run but CancelActive also reads and
	// invokes from the coordinator's goroutine, synchronously and
	// outside the command channel, so a scan blocked inside
	// handleExecuteSearch/handleNavigateMatch can actually be
	// interrupted (spec.md §4.4, §5).
	cancelMu       sync.Mutex
	cancelInFlight context.CancelFunc

	done chan struct{}
}

// New returns a Worker reading acc, consuming commands and publishing
// responses. logger may be nil, in which case nothing is logged.
// The caller runs Worker.Run in its own goroutine.
func New(acc *accessor.Handle, commands <-chan protocol.Command, responses chan<- protocol.Response, logger *logrus.Logger) *Worker {
	return &Worker{
		acc:       acc,
		engine:    search.NewEngine(acc),
		logger:    logger,
		commands:  commands,
		responses: responses,
		done:      make(chan struct{}),
	}
}

// Done is closed once Run returns, so callers can wait for the worker
// to finish draining in-flight work before tearing down the terminal.
func (w *Worker) Done() <-chan struct{} { return w.done }

// CancelActive cancels whichever ExecuteSearch/NavigateMatch scan is
// currently running, if any. Unlike every other interaction with the
// worker, this is called synchronously from the coordinator's own
// goroutine rather than sent over the command channel, since the
// worker's single goroutine can't read a new command until its
// current handler returns.
func (w *Worker) CancelActive() {
	w.cancelMu.Lock()
	cancel := w.cancelInFlight
	w.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run drains commands until a Shutdown command or a closed channel,
// dispatching each to its handler in turn. It owns the accessor and
// engine exclusively: nothing else in the process touches them.
func (w *Worker) Run() {
	defer close(w.done)
	defer w.CancelActive()
	for cmd := range w.commands {
		switch c := cmd.(type) {
		case protocol.LoadViewport:
			w.handleLoadViewport(c)
		case protocol.ExecuteSearch:
			w.handleExecuteSearch(c)
		case protocol.NavigateMatch:
			w.handleNavigateMatch(c)
		case protocol.UpdateSearchContext:
			w.searchCtx = c.Context
		case protocol.Shutdown:
			return
		}
	}
}

func (w *Worker) handleLoadViewport(c protocol.LoadViewport) {
	top, err := w.resolveAnchor(c.Anchor, c.PageLines)
	if err != nil {
		w.sendError(c.RequestID, protocol.ErrRead, err.Error())
		return
	}

	lines, _, atEOF, err := w.acc.ReadFromByte(top, c.PageLines)
	if err != nil {
		w.sendError(c.RequestID, protocol.ErrRead, err.Error())
		return
	}

	texts := make([]string, len(lines))
	starts := make([]uint64, len(lines))
	var highlights [][]protocol.Span
	if c.Highlight != nil && c.Highlight.Pattern != "" {
		hlCtx := protocol.SearchContext{Pattern: c.Highlight.Pattern, Options: c.Highlight.Options}
		highlights = make([][]protocol.Span, len(lines))
		for i, ln := range lines {
			texts[i] = ln.Text
			starts[i] = ln.Start
			spans, err := w.engine.LineMatches(ln.Text, hlCtx)
			if err != nil {
				w.sendError(c.RequestID, protocol.ErrRegexCompile, err.Error())
				return
			}
			highlights[i] = spans
		}
	} else {
		for i, ln := range lines {
			texts[i] = ln.Text
			starts[i] = ln.Start
		}
	}

	w.responses <- protocol.ViewportLoaded{
		RequestID:  c.RequestID,
		TopByte:    top,
		Lines:      texts,
		LineStarts: starts,
		Highlights: highlights,
		AtEOF:      atEOF,
		FileSize:   w.acc.Size(),
	}
}

// resolveAnchor turns an Anchor into a concrete top_byte, per
// spec.md §4.1's three anchor kinds.
func (w *Worker) resolveAnchor(a protocol.Anchor, pageLines int) (uint64, error) {
	switch a.Kind {
	case protocol.AnchorAbsolute:
		b := a.Absolute
		if b > w.acc.Size() {
			b = w.acc.Size()
		}
		return w.acc.ContainingLineStart(b)
	case protocol.AnchorRelativeLines:
		if a.Relative >= 0 {
			return w.acc.NextPageStart(a.From, int(a.Relative))
		}
		return w.acc.PrevPageStart(a.From, int(-a.Relative), 0)
	case protocol.AnchorEndOfFile:
		return w.acc.LastPageStart(pageLines)
	default:
		return 0, nil
	}
}

func (w *Worker) handleExecuteSearch(c protocol.ExecuteSearch) {
	w.searchCtx = c.Context
	ctx, cancel := w.beginCancellable()
	defer cancel()

	match, err := w.engine.FindMatch(ctx, c.Origin, c.Context.Direction, c.Context)
	w.finishSearch(c.RequestID, match, err)
}

func (w *Worker) handleNavigateMatch(c protocol.NavigateMatch) {
	origin := uint64(0)
	dir := w.searchCtx.Direction
	if w.lastMatch != nil {
		origin = *w.lastMatch
	}
	if c.Traversal == protocol.Previous {
		dir = dir.Opposite()
	}

	ctx, cancel := w.beginCancellable()
	defer cancel()

	match, err := w.engine.FindMatch(ctx, origin, dir, w.searchCtx)
	w.finishSearch(c.RequestID, match, err)
}

func (w *Worker) finishSearch(id protocol.RequestID, match *uint64, err error) {
	if errors.Is(err, context.Canceled) {
		w.sendError(id, protocol.ErrCancelled, "search superseded")
		return
	}
	if err != nil {
		w.sendError(id, protocol.ErrRegexCompile, err.Error())
		return
	}
	w.lastMatch = match
	msg := ""
	if match == nil {
		msg = "Pattern not found"
	}
	w.responses <- protocol.SearchCompleted{RequestID: id, MatchByte: match, Message: msg}
}

// beginCancellable cancels any previously running search before
// starting a new one, since the worker only ever runs one search at a
// time and a fresh ExecuteSearch/NavigateMatch always supersedes
// whichever scan is in flight.
func (w *Worker) beginCancellable() (context.Context, context.CancelFunc) {
	w.cancelMu.Lock()
	if w.cancelInFlight != nil {
		w.cancelInFlight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelInFlight = cancel
	w.cancelMu.Unlock()
	return ctx, cancel
}

// sendError publishes an ErrorResponse and logs every non-fatal error
// class at Warn level in addition to its status-line surfacing.
func (w *Worker) sendError(id protocol.RequestID, kind protocol.ErrorKind, msg string) {
	if w.logger != nil {
		w.logger.WithFields(logrus.Fields{
			"request_id": id,
			"kind":       kind,
		}).Warn(msg)
	}
	w.responses <- protocol.ErrorResponse{RequestID: id, Kind: kind, Message: msg}
}
