package accessor

import "sort"

// lineIndex records the byte offset of every known line start. It
// only ever grows forward, as far as a caller has asked the accessor
// to read — it never materializes a full line table for the file.
//
// The worker goroutine is the index's only caller (spec.md §5 "Shared
// resources"), so no locking is needed here.
type lineIndex struct {
	starts []uint64
}

func newLineIndex() *lineIndex {
	return &lineIndex{starts: []uint64{0}}
}

// isKnownBoundary reports whether b has already been recorded as a
// line start.
func (li *lineIndex) isKnownBoundary(b uint64) bool {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] >= b })
	return i < len(li.starts) && li.starts[i] == b
}

// record appends b if it extends the index forward. Out-of-order or
// duplicate offsets are silently ignored: callers only ever record
// offsets they just scanned past, which are monotonically increasing
// within one forward walk, but backward walks (PrevPageStart) must
// not corrupt the index, so this is defensive rather than assumed.
func (li *lineIndex) record(b uint64) {
	last := li.starts[len(li.starts)-1]
	if b > last {
		li.starts = append(li.starts, b)
	}
}
