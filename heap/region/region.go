// Package region provides the heap growth primitive: a contiguous span of
// address space that only ever grows, sbrk-style, and never moves.
//
// Addresses handed out by a Region are byte offsets from the region base.
// Offset 0 is the first byte of the region. Once Sbrk has returned an offset
// it stays valid, and the bytes behind it keep their contents, for the life
// of the region.
//
// Two implementations exist:
//
//   - Mmap reserves the whole span up front with PROT_NONE and commits pages
//     as the break advances (linux and darwin).
//   - Slice backs the region with a fixed-capacity Go slice. It is available
//     everywhere and is what tests use.
//
// Regions are not safe for concurrent use.
package region

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultMax is the reservation size used when none is configured.
const DefaultMax = 64 << 20

var (
	// ErrExhausted indicates the region cannot be extended any further.
	ErrExhausted = errors.New("region: address space exhausted")

	// ErrClosed indicates the region was used after Close.
	ErrClosed = errors.New("region: closed")

	// ErrUnsupported indicates the requested kind is not available on this platform.
	ErrUnsupported = errors.New("region: unsupported on this platform")
)

// Region is the heap growth primitive.
type Region interface {
	// Sbrk moves the break forward by incr bytes and returns the previous
	// break. Sbrk(0) queries the current break without changing it.
	// When the region cannot grow, Sbrk returns ErrExhausted and the
	// break is unchanged.
	Sbrk(incr int) (int, error)

	// Bytes returns the committed span [0, break). The slice aliases the
	// region; writes through it are writes to the heap.
	Bytes() []byte
}

// Kind selects a Region implementation.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindMmap  Kind = "mmap"
	KindSlice Kind = "slice"
)

// ParseKind converts a case-insensitive name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindMmap, KindSlice:
		return k, nil
	case "":
		return KindAuto, nil
	default:
		return "", errors.Newf("region: unknown kind %q (want auto, mmap or slice)", s)
	}
}

// Closeable is a Region that owns OS resources.
type Closeable interface {
	Region
	io.Closer
}

// New creates a region of the given kind able to grow to max bytes.
// KindAuto prefers Mmap and falls back to Slice where mmap is unavailable.
func New(kind Kind, max int) (Closeable, error) {
	if max <= 0 {
		return nil, errors.Newf("region: invalid max size %d", max)
	}
	switch kind {
	case KindSlice:
		return NewSlice(max), nil
	case KindMmap:
		m, err := NewMmap(max)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindAuto, "":
		m, err := NewMmap(max)
		if errors.Is(err, ErrUnsupported) {
			return NewSlice(max), nil
		}
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Newf("region: unknown kind %q", kind)
	}
}

// exhausted builds the error returned when a request does not fit.
func exhausted(brk, incr, max int) error {
	return errors.Wrapf(ErrExhausted, "break=%d incr=%d max=%d", brk, incr, max)
}
