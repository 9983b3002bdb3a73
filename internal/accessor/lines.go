package accessor

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// Line is a half-open byte range [Start, End) with its terminating
// newline (if any) excluded from End, plus its decoded text.
type Line struct {
	Start uint64
	End   uint64
	Text  string
}

const truncationMarker = " […truncated]"

// ReadFromByte reads forward from start, snapping to a line boundary
// per spec.md §4.1, and returns up to maxLines lines.
func (h *Handle) ReadFromByte(start uint64, maxLines int) ([]Line, uint64, bool, error) {
	if h.size == 0 {
		return nil, 0, true, nil
	}
	if start >= uint64(h.size) {
		return nil, start, true, nil
	}
	cur, err := h.snapForward(start)
	if err != nil {
		return nil, start, false, err
	}

	var lines []Line
	atEOF := false
	for len(lines) < maxLines {
		if cur >= uint64(h.size) {
			atEOF = true
			break
		}
		nlPos, found, err := h.indexByteForward(cur)
		if err != nil {
			return lines, cur, false, err
		}
		var end, next uint64
		if found {
			end, next = nlPos, nlPos+1
		} else {
			end, next = uint64(h.size), uint64(h.size)
		}
		h.index.record(cur)
		text, err := h.readRange(cur, end)
		if err != nil {
			return lines, cur, false, err
		}
		lines = append(lines, Line{Start: cur, End: end, Text: text})
		cur = next
		if !found || cur >= uint64(h.size) {
			atEOF = true
			break
		}
	}
	return lines, cur, atEOF, nil
}

// LineAt reads the single line starting at start, which must already
// be a line boundary (as returned by ReadFromByte, PrevPageStart, or
// ContainingLineStart).
func (h *Handle) LineAt(start uint64) (Line, error) {
	lines, _, _, err := h.ReadFromByte(start, 1)
	if err != nil {
		return Line{}, err
	}
	if len(lines) == 0 {
		return Line{Start: start, End: start, Text: ""}, nil
	}
	return lines[0], nil
}

// NextPageStart advances pageLines lines forward from current.
func (h *Handle) NextPageStart(current uint64, pageLines int) (uint64, error) {
	cur, err := h.snapForward(current)
	if err != nil {
		return current, err
	}
	for i := 0; i < pageLines; i++ {
		if cur >= uint64(h.size) {
			break
		}
		nlPos, found, err := h.indexByteForward(cur)
		if err != nil {
			return cur, err
		}
		h.index.record(cur)
		if found {
			cur = nlPos + 1
		} else {
			cur = uint64(h.size)
			break
		}
	}
	return cur, nil
}

// PrevPageStart computes the byte offset whose forward read of
// pageLines lines ends at current. width is accepted for interface
// symmetry with spec.md §4.1 but unused: this accessor does not wrap
// long lines, so a "visual line" and a "line" coincide.
func (h *Handle) PrevPageStart(current uint64, pageLines int, width int) (uint64, error) {
	_ = width
	boundary := current
	for i := 0; i < pageLines; i++ {
		if boundary == 0 {
			break
		}
		pos, found, err := h.lastIndexByteBackward(boundary - 1)
		if err != nil {
			return boundary, err
		}
		if found {
			boundary = pos + 1
		} else {
			boundary = 0
		}
	}
	return boundary, nil
}

// LastPageStart returns the byte offset from which a forward read
// yields the final pageLines of the file.
func (h *Handle) LastPageStart(pageLines int) (uint64, error) {
	return h.PrevPageStart(uint64(h.size), pageLines, 0)
}

// ContainingLineStart snaps b backward to the start of the line that
// contains it — the rounding direction used for %-jump anchors
// (spec.md §4.6), as opposed to ReadFromByte's forward snap.
func (h *Handle) ContainingLineStart(b uint64) (uint64, error) {
	if b == 0 {
		return 0, nil
	}
	if b > uint64(h.size) {
		b = uint64(h.size)
	}
	pos, found, err := h.lastIndexByteBackward(b)
	if err != nil {
		return 0, err
	}
	if found {
		return pos + 1, nil
	}
	return 0, nil
}

// snapForward implements the accessor's forward-snapping rule:
// identity at 0 or at an already-known boundary, otherwise the first
// line boundary at or after start.
func (h *Handle) snapForward(start uint64) (uint64, error) {
	if start == 0 {
		return 0, nil
	}
	if h.index.isKnownBoundary(start) {
		return start, nil
	}
	// start is itself a boundary when the byte before it is '\n', so the
	// scan begins one byte earlier.
	nlPos, found, err := h.indexByteForward(start - 1)
	if err != nil {
		return 0, err
	}
	if !found {
		return uint64(h.size), nil
	}
	return nlPos + 1, nil
}

// indexByteForward returns the offset of the first '\n' at or after
// from, scanning forward in fixed-size chunks so memory use stays
// bounded regardless of line length.
func (h *Handle) indexByteForward(from uint64) (uint64, bool, error) {
	if from >= uint64(h.size) {
		return 0, false, nil
	}
	off := int64(from)
	for {
		n, err := h.src.ReadAt(h.buf, off)
		if n > 0 {
			if i := bytes.IndexByte(h.buf[:n], '\n'); i >= 0 {
				return uint64(off) + uint64(i), true, nil
			}
		}
		if err == io.EOF {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		off += int64(n)
		if off >= h.size {
			return 0, false, nil
		}
	}
}

// lastIndexByteBackward returns the offset of the last '\n' strictly
// before "before", scanning backward in fixed-size chunks.
func (h *Handle) lastIndexByteBackward(before uint64) (uint64, bool, error) {
	if before == 0 {
		return 0, false, nil
	}
	end := int64(before)
	chunk := int64(len(h.buf))
	for end > 0 {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n := int(end - start)
		buf := h.buf[:n]
		_, err := h.src.ReadAt(buf, start)
		if err != nil && err != io.EOF {
			return 0, false, err
		}
		if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
			return uint64(start) + uint64(i), true, nil
		}
		end = start
	}
	return 0, false, nil
}

// readRange decodes [start, end) to UTF-8, replacing invalid
// sequences with U+FFFD and truncating lines past the soft cap.
func (h *Handle) readRange(start, end uint64) (string, error) {
	n := end - start
	truncated := false
	if h.softCap > 0 && n > uint64(h.softCap) {
		end = start + uint64(h.softCap)
		n = uint64(h.softCap)
		truncated = true
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	_, err := h.src.ReadAt(buf, int64(start))
	if err != nil && err != io.EOF {
		return "", err
	}
	s := string(buf)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	if truncated {
		s += truncationMarker
	}
	return s, nil
}
