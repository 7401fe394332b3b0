package jsonseq

import (
	"bytes"
	"io"
)

// lineReader records the offset of each newline that passes through it so
// a decoder offset can be mapped back to a line number. It also keeps the
// bytes read past the last queried offset, which bounds it by the decoder's
// read-ahead.
type lineReader struct {
	r        io.Reader
	offset   int64
	newlines []int64
	passed   int

	pending      []byte
	pendingStart int64

	// err is the first read failure other than io.EOF.
	err error
}

func (lr *lineReader) Read(p []byte) (int, error) {
	n, err := lr.r.Read(p)
	chunk := p[:n]
	lr.pending = append(lr.pending, chunk...)
	base := lr.offset
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			break
		}
		lr.newlines = append(lr.newlines, base+int64(i))
		base += int64(i) + 1
		chunk = chunk[i+1:]
	}
	lr.offset += int64(n)
	if err != nil && err != io.EOF && lr.err == nil {
		lr.err = err
	}
	return n, err
}

// lineAt returns the line containing byte offset off. Offsets must be
// queried in non-decreasing order; state before off is discarded.
func (lr *lineReader) lineAt(off int64) int {
	i := 0
	for i < len(lr.newlines) && lr.newlines[i] < off {
		i++
	}
	lr.passed += i
	lr.newlines = lr.newlines[i:]

	if drop := off - lr.pendingStart; drop > 0 {
		if drop > int64(len(lr.pending)) {
			drop = int64(len(lr.pending))
		}
		lr.pending = lr.pending[drop:]
		lr.pendingStart += drop
	}
	return lr.passed + 1
}

// skipSpace returns the offset of the first non-whitespace byte at or after
// off among the bytes read so far.
func (lr *lineReader) skipSpace(off int64) int64 {
	for i := off - lr.pendingStart; i >= 0 && i < int64(len(lr.pending)); i++ {
		switch lr.pending[i] {
		case ' ', '\t', '\r', '\n':
			off++
		default:
			return off
		}
	}
	return off
}
