package region

import (
	"github.com/joshuapare/heapkit/internal/buf"
)

// Slice is a Region backed by a Go slice whose capacity is fixed at
// construction. Growth only extends the length, so the backing array never
// moves.
type Slice struct {
	buf    []byte
	closed bool
}

// NewSlice creates a slice-backed region able to grow to max bytes.
func NewSlice(max int) *Slice {
	return &Slice{buf: make([]byte, 0, max)}
}

// Sbrk implements Region.
func (s *Slice) Sbrk(incr int) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	brk := len(s.buf)
	if incr < 0 {
		return 0, exhausted(brk, incr, cap(s.buf))
	}
	newBrk, ok := buf.AddOverflowSafe(brk, incr)
	if !ok || newBrk > cap(s.buf) {
		return 0, exhausted(brk, incr, cap(s.buf))
	}
	s.buf = s.buf[:newBrk]
	return brk, nil
}

// Bytes implements Region.
func (s *Slice) Bytes() []byte {
	return s.buf[:len(s.buf):len(s.buf)]
}

// Max returns the largest break the region can reach.
func (s *Slice) Max() int { return cap(s.buf) }

// Close releases the region. Further Sbrk calls fail with ErrClosed.
func (s *Slice) Close() error {
	s.closed = true
	return nil
}
