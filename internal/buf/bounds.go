// Package buf contains overflow-checked arithmetic and bounded slicing
// used wherever a size or offset comes from a caller.
package buf

import (
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result
// would overflow int. Negative operands are rejected: every caller is
// computing a byte count.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
// The result's capacity is clipped to n so appends cannot spill into
// neighbouring bytes.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
