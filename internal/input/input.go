// Package input runs the producer: a dedicated, OS-thread-locked
// goroutine that reads raw terminal bytes, decodes them into
// mode-aware actions, coalesces bursts of scroll events, and pushes
// the result onto a bounded channel the render coordinator drains.
//
// Raw-mode handling and escape-sequence matching follow the same
// shape as a from-scratch terminal line reader built on
// golang.org/x/term: read whatever bytes are available, compare the
// unread prefix against a table of known sequences, and fall through
// to a literal rune when nothing matches.
package input

import (
	"bytes"
	"os"
	"runtime"
	"time"

	"golang.org/x/term"
)

// Mode is the producer's interpretation state. Keys are decoded
// differently depending on which mode is active.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearchForward
	ModeSearchBackward
	ModePercentJump
	ModeCommand
)

// ActionKind discriminates the producer's output events.
type ActionKind int

const (
	ActionScroll ActionKind = iota
	ActionPageDown
	ActionPageUp
	ActionGoToStart
	ActionGoToEnd
	ActionPercentJump
	ActionEnterSearch
	ActionSearchRune
	ActionSearchBackspace
	ActionCommitSearch
	ActionCancelMode
	ActionNextMatch
	ActionPreviousMatch
	ActionToggleCaseSensitive
	ActionToggleRegex
	ActionToggleWholeWord
	ActionCancelSearch
	ActionResize
	ActionQuit
)

// Action is one decoded event the producer hands to the coordinator.
type Action struct {
	Kind       ActionKind
	ScrollDown bool  // valid when Kind == ActionScroll
	ScrollBy   int   // valid when Kind == ActionScroll: coalesced line count
	Rune       rune  // valid when Kind == ActionSearchRune
	Percent    int   // never set: ActionPercentJump only opens the prompt, whose digits arrive as ActionSearchRune
	Width      int   // valid when Kind == ActionResize
	Height     int   // valid when Kind == ActionResize
}

// coalesceWindow is how long the producer waits after a scroll event
// before flushing it, to merge a burst of key-repeat or mouse-wheel
// events into one Action (spec.md §4.5).
const coalesceWindow = 10 * time.Millisecond

// Producer owns stdin and its raw-mode state for the process lifetime.
type Producer struct {
	actions chan<- Action
	mode    Mode

	pending []byte // unread bytes carried across reads, tinkerator-lined style

	coalesceDir bool
	coalesceN   int
	coalescing  bool
}

// New returns a Producer that writes decoded actions to actions.
func New(actions chan<- Action) *Producer {
	return &Producer{actions: actions}
}

// Run enters raw mode, restores it on return, and decodes stdin until
// it hits EOF or an unrecoverable read error. It must run on its own
// goroutine; the caller should not expect Run to return promptly on
// shutdown, since a blocked os.Stdin.Read is not interrupted.
//
// The blocking os.Stdin.Read lives on its own inner goroutine so that
// this loop can also wait on the scroll-coalescing timer; feed and
// flushCoalesced are therefore only ever called from this one
// goroutine, avoiding the data race a timer.AfterFunc callback would
// introduce by running concurrently with the reader.
func (p *Producer) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	fd := int(os.Stdin.Fd())
	var restore *term.State
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		restore = state
		defer term.Restore(fd, restore)
	}

	rawBytes := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				cp := make([]byte, n)
				copy(cp, buf[:n])
				rawBytes <- cp
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	timer := time.NewTimer(coalesceWindow)
	if !timer.Stop() {
		<-timer.C
	}
	var timerActive bool

	for {
		select {
		case b := <-rawBytes:
			p.feed(b)
			if p.coalescing {
				if timerActive && !timer.Stop() {
					<-timer.C
				}
				timer.Reset(coalesceWindow)
				timerActive = true
			} else if timerActive {
				if !timer.Stop() {
					<-timer.C
				}
				timerActive = false
			}
		case <-timer.C:
			timerActive = false
			p.flushCoalesced()
		case err := <-readErr:
			p.flushCoalesced()
			return err
		}
	}
}

// feed appends newly read bytes to the pending buffer and decodes as
// many complete sequences as it can find.
func (p *Producer) feed(b []byte) {
	p.pending = append(p.pending, b...)
	for len(p.pending) > 0 {
		consumed, act, ok := decode(p.pending, p.mode)
		if consumed == 0 {
			// Possible partial escape sequence; wait for more bytes.
			return
		}
		p.pending = p.pending[consumed:]
		if !ok {
			continue
		}
		p.dispatch(act)
	}
}

// dispatch applies mode transitions implied by an action and forwards
// it to the coordinator, coalescing scroll bursts first.
func (p *Producer) dispatch(act Action) {
	switch act.Kind {
	case ActionEnterSearch:
		if act.Rune == '?' {
			p.mode = ModeSearchBackward
		} else {
			p.mode = ModeSearchForward
		}
	case ActionPercentJump:
		p.mode = ModePercentJump
	case ActionCommitSearch, ActionCancelMode:
		p.mode = ModeNormal
	case ActionScroll:
		p.coalesceScroll(act)
		return
	}
	p.flushCoalesced()
	p.send(act)
}

// coalesceScroll accumulates same-direction scroll events behind a
// timer, flushing whenever the direction changes or the timer fires.
func (p *Producer) coalesceScroll(act Action) {
	if p.coalescing && p.coalesceDir != act.ScrollDown {
		p.flushCoalesced()
	}
	p.coalescing = true
	p.coalesceDir = act.ScrollDown
	p.coalesceN += act.ScrollBy
}

func (p *Producer) flushCoalesced() {
	if !p.coalescing {
		return
	}
	p.coalescing = false
	n := p.coalesceN
	p.coalesceN = 0
	p.send(Action{Kind: ActionScroll, ScrollDown: p.coalesceDir, ScrollBy: n})
}

// send is a non-blocking push: a producer that outruns the
// coordinator drops the oldest queued action rather than blocking the
// OS-locked read thread (spec.md §5).
func (p *Producer) send(act Action) {
	select {
	case p.actions <- act:
	default:
		select {
		case <-p.actions:
		default:
		}
		select {
		case p.actions <- act:
		default:
		}
	}
}

// sequence is one recognized multi-byte escape sequence.
type sequence struct {
	bytes  []byte
	action Action
}

var normalSequences = []sequence{
	{[]byte("\033[A"), Action{Kind: ActionScroll, ScrollDown: false, ScrollBy: 1}},
	{[]byte("\033[B"), Action{Kind: ActionScroll, ScrollDown: true, ScrollBy: 1}},
	{[]byte("\033[5~"), Action{Kind: ActionPageUp}},
	{[]byte("\033[6~"), Action{Kind: ActionPageDown}},
	{[]byte("\033[H"), Action{Kind: ActionGoToStart}},
	{[]byte("\033[F"), Action{Kind: ActionGoToEnd}},
}

// decode inspects the unread prefix of buf and returns how many bytes
// it consumed, the decoded action (if any), and whether an action was
// actually produced. consumed == 0 signals "wait for more bytes": buf
// might be a prefix of a longer escape sequence.
func decode(buf []byte, mode Mode) (consumed int, act Action, ok bool) {
	if buf[0] == 0x1b {
		for _, seq := range normalSequences {
			if len(buf) < len(seq.bytes) {
				if bytes.HasPrefix(seq.bytes, buf) {
					return 0, Action{}, false // partial match, wait
				}
				continue
			}
			if bytes.HasPrefix(buf, seq.bytes) {
				return len(seq.bytes), seq.action, true
			}
		}
		if len(buf) == 1 {
			return 0, Action{}, false // lone ESC, might start a sequence
		}
		// Unrecognized escape sequence: treat ESC alone as cancel.
		return 1, Action{Kind: ActionCancelMode}, true
	}

	r := rune(buf[0])
	switch mode {
	case ModeSearchForward, ModeSearchBackward, ModePercentJump, ModeCommand:
		return decodeEntryMode(r)
	default:
		return decodeNormalKey(r)
	}
}

func decodeEntryMode(r rune) (int, Action, bool) {
	switch r {
	case 0x03: // Ctrl+C cancels the prompt, same as Esc (spec.md §4.5)
		return 1, Action{Kind: ActionCancelMode}, true
	case '\r', '\n':
		return 1, Action{Kind: ActionCommitSearch}, true
	case 0x7f, 0x08: // DEL / backspace
		return 1, Action{Kind: ActionSearchBackspace}, true
	default:
		return 1, Action{Kind: ActionSearchRune, Rune: r}, true
	}
}

func decodeNormalKey(r rune) (int, Action, bool) {
	switch r {
	case 0x03: // Ctrl+C cancels an active search; it never quits (spec.md §4.5)
		return 1, Action{Kind: ActionCancelSearch}, true
	case 'q':
		return 1, Action{Kind: ActionQuit}, true
	case 'j':
		return 1, Action{Kind: ActionScroll, ScrollDown: true, ScrollBy: 1}, true
	case 'k':
		return 1, Action{Kind: ActionScroll, ScrollDown: false, ScrollBy: 1}, true
	case ' ', 'f':
		return 1, Action{Kind: ActionPageDown}, true
	case 'b':
		return 1, Action{Kind: ActionPageUp}, true
	case 'g':
		return 1, Action{Kind: ActionGoToStart}, true
	case 'G':
		return 1, Action{Kind: ActionGoToEnd}, true
	case '/':
		return 1, Action{Kind: ActionEnterSearch, Rune: '/'}, true
	case '?':
		return 1, Action{Kind: ActionEnterSearch, Rune: '?'}, true
	case '%':
		return 1, Action{Kind: ActionPercentJump}, true
	case 'n':
		return 1, Action{Kind: ActionNextMatch}, true
	case 'N':
		return 1, Action{Kind: ActionPreviousMatch}, true
	case 'i':
		return 1, Action{Kind: ActionToggleCaseSensitive}, true
	case 'r':
		return 1, Action{Kind: ActionToggleRegex}, true
	case 'w':
		return 1, Action{Kind: ActionToggleWholeWord}, true
	default:
		return 1, Action{}, false
	}
}
