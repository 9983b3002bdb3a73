package coordinator

import "strings"

// searchHistory is a bounded, in-memory ring of past search patterns
// with draft-then-commit cursor navigation, adapted from the teacher's
// repl.History — with its on-disk load/save dropped, since this
// session persists nothing (spec.md §6).
type searchHistory struct {
	entries []string
	cursor  int
	draft   string
	maxSize int
}

func newSearchHistory(maxSize int) *searchHistory {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &searchHistory{cursor: -1, maxSize: maxSize}
}

// Add appends pattern to history, deduplicating a repeat of the most
// recent entry, and resets cursor navigation.
func (h *searchHistory) Add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == pattern {
		h.cursor = -1
		h.draft = ""
		return
	}
	h.entries = append(h.entries, pattern)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
	h.cursor = -1
	h.draft = ""
}

// Up moves to the previous (older) history entry, stashing
// currentInput as the draft on first move.
func (h *searchHistory) Up(currentInput string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == -1 {
		h.draft = currentInput
		h.cursor = len(h.entries) - 1
	} else if h.cursor > 0 {
		h.cursor--
	} else {
		return h.entries[0], false
	}
	return h.entries[h.cursor], true
}

// Down moves to the next (newer) history entry, or back to the draft
// once the cursor runs past the most recent entry.
func (h *searchHistory) Down(currentInput string) (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = -1
	return h.draft, true
}

// ResetNavigation clears cursor/draft state without touching entries.
func (h *searchHistory) ResetNavigation() {
	h.cursor = -1
	h.draft = ""
}
