//go:build !unix

package accessor

import "os"

// fileSource is the non-unix fallback: plain ranged reads via
// os.File.ReadAt. No mmap syscall binding is wired for this platform
// (see DESIGN.md), but ReadAt already gives bounded-memory, windowed
// reads — the property that actually matters for spec.md §4.1.
type fileSource struct {
	f    *os.File
	size int64
}

func newPlatformSource(f *os.File, size int64) (byteSource, error) {
	return &fileSource{f: f, size: size}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *fileSource) Len() int64 { return s.size }

// Close is a no-op: the underlying *os.File is owned and closed by
// Handle, not by the source, on every platform.
func (s *fileSource) Close() error { return nil }
