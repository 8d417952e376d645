//go:build linux || darwin

package region

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Mmap is a Region backed by an anonymous private mapping. The full span is
// reserved at construction with PROT_NONE; Sbrk makes pages readable and
// writable as the break crosses them. The kernel hands out zeroed pages.
type Mmap struct {
	mem       []byte // whole reservation
	brk       int
	committed int // bytes with PROT_READ|PROT_WRITE, a page multiple
	pageSize  int
}

// NewMmap reserves max bytes (rounded up to a page) of address space.
func NewMmap(max int) (*Mmap, error) {
	if max <= 0 {
		return nil, errors.Newf("region: invalid max size %d", max)
	}
	pageSize := unix.Getpagesize()
	size, ok := buf.AddOverflowSafe(max, pageSize-1)
	if !ok {
		return nil, errors.Newf("region: max size %d too large", max)
	}
	size &^= pageSize - 1

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, errors.Wrapf(err, "region: reserve %d bytes", size)
	}
	return &Mmap{mem: mem, pageSize: pageSize}, nil
}

// Sbrk implements Region.
func (m *Mmap) Sbrk(incr int) (int, error) {
	if m.mem == nil {
		return 0, ErrClosed
	}
	if incr < 0 {
		return 0, exhausted(m.brk, incr, len(m.mem))
	}
	newBrk, ok := buf.AddOverflowSafe(m.brk, incr)
	if !ok || newBrk > len(m.mem) {
		return 0, exhausted(m.brk, incr, len(m.mem))
	}
	if newBrk > m.committed {
		end := (newBrk + m.pageSize - 1) &^ (m.pageSize - 1)
		if err := unix.Mprotect(m.mem[m.committed:end], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, errors.Wrapf(ErrExhausted, "commit [%d,%d): %v", m.committed, end, err)
		}
		m.committed = end
	}
	prev := m.brk
	m.brk = newBrk
	return prev, nil
}

// Bytes implements Region.
func (m *Mmap) Bytes() []byte {
	if m.mem == nil {
		return nil
	}
	return m.mem[:m.brk:m.brk]
}

// Max returns the largest break the region can reach.
func (m *Mmap) Max() int { return len(m.mem) }

// Close unmaps the reservation. Calling Close twice is a no-op.
func (m *Mmap) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}
