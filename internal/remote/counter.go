package remote

import (
	"io"
)

// countingReader tallies the bytes read through it.
type countingReader struct {
	in    io.Reader
	bytes int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	size, err := cr.in.Read(p)
	cr.bytes += int64(size)
	return size, err
}

// countingWriter tallies the bytes written through it.
type countingWriter struct {
	out   io.Writer
	bytes int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	size, err := cw.out.Write(p)
	cw.bytes += int64(size)
	return size, err
}

// checkSize compares a transferred byte count with the size the other side
// reported. A negative expected size means the size was not known.
func checkSize(expected, actual int64) error {
	if expected < 0 || expected == actual {
		return nil
	}
	return &ErrShortTransfer{expected: expected, actual: actual}
}
