package accessor

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/ulikunitz/xz"
)

// codec identifies a supported compression format.
type codec int

const (
	codecNone codec = iota
	codecGzip
	codecBzip2
	codecXz
	codecZstd
)

var magicSignatures = []struct {
	codec codec
	magic []byte
}{
	{codecGzip, []byte{0x1F, 0x8B}},
	{codecBzip2, []byte{0x42, 0x5A, 0x68}},
	{codecXz, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}},
	{codecZstd, []byte{0x28, 0xB5, 0x2F, 0xFD}},
}

var extensionCodecs = map[string]codec{
	".gz":  codecGzip,
	".bz2": codecBzip2,
	".xz":  codecXz,
	".zst": codecZstd,
}

// detectCodec sniffs the leading bytes of path, falling back to its
// extension when the magic bytes are inconclusive (spec.md §6).
func detectCodec(path string) (codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return codecNone, err
	}
	defer f.Close()

	head := make([]byte, 6)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return codecNone, err
	}
	head = head[:n]

	for _, sig := range magicSignatures {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.codec, nil
		}
	}
	if c, ok := extensionCodecs[strings.ToLower(filepath.Ext(path))]; ok {
		return c, nil
	}
	return codecNone, nil
}

// stageToTemp decompresses path (whose codec has already been
// detected as non-none) into a fresh temp file and returns its path.
// The accessor.Handle removes the temp file on Close.
func stageToTemp(path string, c codec) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	var reader io.Reader
	switch c {
	case codecGzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			return "", fmt.Errorf("decompress: %w", err)
		}
		defer gz.Close()
		reader = gz
	case codecBzip2:
		reader = bzip2.NewReader(src)
	case codecXz:
		xr, err := xz.NewReader(src)
		if err != nil {
			return "", fmt.Errorf("decompress: %w", err)
		}
		reader = xr
	case codecZstd:
		zr := zstd.NewReader(src)
		defer zr.Close()
		reader = zr
	default:
		return "", fmt.Errorf("unsupported codec")
	}

	tmp, err := os.CreateTemp("", "bigless-*.decompressed")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, reader); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("decompress: %w", err)
	}
	return tmp.Name(), nil
}
