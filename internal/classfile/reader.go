package classfile

import (
	"io"

	"github.com/ghaldin/gojvm/internal/diagnostics"
)

// reader is a sequential big-endian reader over an immutable byte buffer
// with a mutable cursor. All multi-byte reads advance the cursor by exactly
// the number of bytes read.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func readAll(r io.Reader) (*reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diagnostics.Wrap(err, diagnostics.ParseError, "reading class bytes")
	}
	return newReader(data), nil
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u1() (uint8, error) {
	if r.remaining() < 1 {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated stream at offset %d reading u1", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if r.remaining() < 2 {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated stream at offset %d reading u2", r.pos)
	}
	v := uint16(r.buf[r.pos])<<8 | uint16(r.buf[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.remaining() < 4 {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated stream at offset %d reading u4", r.pos)
	}
	v := uint32(r.buf[r.pos])<<24 | uint32(r.buf[r.pos+1])<<16 | uint32(r.buf[r.pos+2])<<8 | uint32(r.buf[r.pos+3])
	r.pos += 4
	return v, nil
}

func (r *reader) u8() (uint64, error) {
	if r.remaining() < 8 {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated stream at offset %d reading u8", r.pos)
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(r.buf[r.pos+i])
	}
	r.pos += 8
	return v, nil
}

func (r *reader) span(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, diagnostics.New(diagnostics.ParseError, "truncated stream at offset %d reading %d bytes", r.pos, n)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) setPos(p int) { r.pos = p }
