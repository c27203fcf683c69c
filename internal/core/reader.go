package core

import (
	"fmt"
	"io"
)

// CountingReader tracks bytes read and fails with ErrFileTooLarge once more
// than Limit bytes have been read. A Limit of 0 disables the check.
//
// Declared multipart sizes can be wrong or missing, so the limit is enforced
// on what is actually read.
type CountingReader struct {
	reader    io.Reader
	Limit     int64
	BytesRead int64
}

// NewCountingReader wraps r with a byte counter and optional limit.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	if r.Limit > 0 {
		// Allow one byte past the limit so an exact-size file still reaches EOF.
		if remaining := r.Limit + 1 - r.BytesRead; int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}

	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)

	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.Limit)
	}
	return n, err
}
