// Package accessor is the byte-addressed file view: it turns
// arbitrary file offsets into lines with bounded memory, regardless
// of how large the backing file is.
package accessor

import (
	"fmt"
	"io"
	"os"
)

// Strategy identifies how a Handle's bytes are backed.
type Strategy int

const (
	StrategyMemory Strategy = iota
	StrategyMmap
)

func (s Strategy) String() string {
	if s == StrategyMemory {
		return "memory"
	}
	return "mmap"
}

const (
	defaultSmallFileThreshold = 10 * 1024 * 1024 // 10MB, spec.md §4.1
	defaultSoftLineCap        = 1 << 20           // 1MiB
	defaultChunkSize          = 64 * 1024
)

// Options tunes strategy selection and decoding. Zero values fall
// back to spec.md's defaults.
type Options struct {
	SmallFileThreshold int64
	SoftLineCapBytes   int
}

// Handle is an immutable-after-open, byte-addressed view over a
// possibly-huge file. It is owned exclusively by the search worker;
// nothing else in the repository holds a reference to one.
type Handle struct {
	path     string
	tempPath string
	file     *os.File
	size     int64
	strategy Strategy
	src      byteSource
	index    *lineIndex
	softCap  int
	buf      []byte
}

// Open selects a strategy for path (slurp, mmap, or decompress-then-
// retry) and returns a ready Handle.
func Open(path string, opts Options) (*Handle, error) {
	c, err := detectCodec(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	openPath := path
	tempPath := ""
	if c != codecNone {
		staged, err := stageToTemp(path, c)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		openPath, tempPath = staged, staged
	}

	f, err := os.Open(openPath)
	if err != nil {
		if tempPath != "" {
			os.Remove(tempPath)
		}
		return nil, fmt.Errorf("opening %s: %w", openPath, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		if tempPath != "" {
			os.Remove(tempPath)
		}
		return nil, fmt.Errorf("stat %s: %w", openPath, err)
	}
	size := st.Size()

	threshold := opts.SmallFileThreshold
	if threshold <= 0 {
		threshold = defaultSmallFileThreshold
	}
	softCap := opts.SoftLineCapBytes
	if softCap <= 0 {
		softCap = defaultSoftLineCap
	}

	var src byteSource
	var strategy Strategy
	if size <= threshold {
		data := make([]byte, size)
		if _, err := io.ReadFull(f, data); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			f.Close()
			if tempPath != "" {
				os.Remove(tempPath)
			}
			return nil, fmt.Errorf("reading %s: %w", openPath, err)
		}
		src = newMemorySource(data)
		strategy = StrategyMemory
	} else {
		src, err = newPlatformSource(f, size)
		if err != nil {
			f.Close()
			if tempPath != "" {
				os.Remove(tempPath)
			}
			return nil, fmt.Errorf("mapping %s: %w", openPath, err)
		}
		strategy = StrategyMmap
	}

	return &Handle{
		path:     path,
		tempPath: tempPath,
		file:     f,
		size:     size,
		strategy: strategy,
		src:      src,
		index:    newLineIndex(),
		softCap:  softCap,
		buf:      make([]byte, defaultChunkSize),
	}, nil
}

// Close releases the backing resource and removes any staged
// decompression temp file.
func (h *Handle) Close() error {
	srcErr := h.src.Close()
	fileErr := h.file.Close()
	if h.tempPath != "" {
		os.Remove(h.tempPath)
	}
	if srcErr != nil {
		return srcErr
	}
	return fileErr
}

// Size returns the file's byte size.
func (h *Handle) Size() uint64 { return uint64(h.size) }

// Strategy reports which backing strategy this Handle selected.
func (h *Handle) Strategy() Strategy { return h.strategy }

// Path returns the original (pre-decompression) path.
func (h *Handle) Path() string { return h.path }
