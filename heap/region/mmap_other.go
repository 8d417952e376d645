//go:build !linux && !darwin

package region

// Mmap is unavailable on this platform; NewMmap always fails.
type Mmap struct{}

// NewMmap reports ErrUnsupported. Use NewSlice or New(KindAuto, ...).
func NewMmap(max int) (*Mmap, error) {
	return nil, ErrUnsupported
}

func (m *Mmap) Sbrk(incr int) (int, error) { return 0, ErrUnsupported }
func (m *Mmap) Bytes() []byte              { return nil }
func (m *Mmap) Max() int                   { return 0 }
func (m *Mmap) Close() error               { return nil }
