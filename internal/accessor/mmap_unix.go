//go:build unix

package accessor

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapSource memory-maps a file with a sequential-access advisory,
// the strategy spec.md §4.1 calls for above the small-file threshold.
type mmapSource struct {
	data []byte
}

// newPlatformSource memory-maps f for read-only sequential access.
// f is kept open by the caller; mmapSource only needs the fd for the
// Mmap call itself.
func newPlatformSource(f *os.File, size int64) (byteSource, error) {
	if size == 0 {
		return newMemorySource(nil), nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return &mmapSource{data: data}, nil
}

func (m *mmapSource) ReadAt(p []byte, off int64) (int, error) {
	ms := newMemorySource(m.data)
	return ms.ReadAt(p, off)
}

func (m *mmapSource) Len() int64 { return int64(len(m.data)) }

func (m *mmapSource) Close() error {
	if len(m.data) == 0 {
		return nil
	}
	return unix.Munmap(m.data)
}
