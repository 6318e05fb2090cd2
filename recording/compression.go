package recording

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// CompressionType is the compression wrapping a recording file
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

func (ct CompressionType) String() string {
	switch ct {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

// MarshalJSON encodes the compression by name
func (ct CompressionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(ct.String())
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	xzMagic    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	zipMagic   = []byte{0x50, 0x4b, 0x03, 0x04} // xlsx workbooks are zip archives
)

// peekHeader returns up to n leading bytes without consuming them
func peekHeader(br *bufio.Reader, n int) ([]byte, error) {
	header, err := br.Peek(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	return header, nil
}

// DetectCompression inspects the magic bytes at the head of br
func DetectCompression(br *bufio.Reader) (CompressionType, error) {
	header, err := peekHeader(br, len(xzMagic))
	if err != nil {
		return CompressionNone, fmt.Errorf("failed to read file header: %w", err)
	}

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip, nil
	case bytes.HasPrefix(header, bzip2Magic):
		return CompressionBzip2, nil
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXZ, nil
	default:
		return CompressionNone, nil
	}
}

// isZip reports whether br starts with a zip local file header
func isZip(br *bufio.Reader) bool {
	header, err := peekHeader(br, len(zipMagic))
	return err == nil && bytes.HasPrefix(header, zipMagic)
}

// decompress wraps r according to the detected compression
func decompress(r io.Reader, ct CompressionType) (io.Reader, error) {
	switch ct {
	case CompressionNone:
		return r, nil
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", ct)
	}
}
