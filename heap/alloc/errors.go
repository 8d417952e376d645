package alloc

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrZeroSize indicates a request for zero bytes.
	ErrZeroSize = errors.New("alloc: zero-size request")

	// ErrNegativeSize indicates a negative byte count.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrNoSpace indicates that no free block fit and the region refused to grow.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrOverflow indicates count*size does not fit in an int.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrCorrupt is returned by Check when the block chain violates an invariant.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)

// FaultKind classifies an unrecoverable contract violation.
type FaultKind uint8

const (
	// FaultDoubleFree: Free on a block that is already free.
	FaultDoubleFree FaultKind = iota + 1
	// FaultBadPointer: a pointer that does not address a block payload.
	FaultBadPointer
	// FaultUseAfterFree: payload access through a pointer to a free block.
	FaultUseAfterFree
	// FaultCorruptHeader: a header in the chain failed to decode.
	FaultCorruptHeader
	// FaultRegionMismatch: the region break moved between the grower's
	// query and its extension.
	FaultRegionMismatch
)

func (k FaultKind) String() string {
	switch k {
	case FaultDoubleFree:
		return "double free"
	case FaultBadPointer:
		return "bad pointer"
	case FaultUseAfterFree:
		return "use after free"
	case FaultCorruptHeader:
		return "corrupt header"
	case FaultRegionMismatch:
		return "region mismatch"
	default:
		return fmt.Sprintf("fault(%d)", uint8(k))
	}
}

// Fault describes a contract violation. It is delivered to the fault
// handler and then panicked with; it is never returned as an error.
type Fault struct {
	Kind   FaultKind
	Addr   int    // region offset the fault concerns
	Detail string // what was observed
	cause  error
}

func newFault(kind FaultKind, addr int, detail string) *Fault {
	return &Fault{
		Kind:   kind,
		Addr:   addr,
		Detail: detail,
		cause:  errors.AssertionFailedf("%s at %#x: %s", kind, addr, detail),
	}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("alloc: fatal %s at %#x: %s", f.Kind, f.Addr, f.Detail)
}

// Unwrap exposes the assertion failure so errors.HasAssertionFailure
// recognises a Fault and anything wrapping one.
func (f *Fault) Unwrap() error { return f.cause }
