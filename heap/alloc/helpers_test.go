package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

const testHeapMax = 1 << 20

// newTestAllocator returns an allocator over a fresh slice region.
func newTestAllocator(t testing.TB, s Strategy) (*Allocator, *region.Slice) {
	t.Helper()
	r := region.NewSlice(testHeapMax)
	return New(r, WithStrategy(s)), r
}

// mustMalloc allocates size bytes or fails the test.
func mustMalloc(t testing.TB, a *Allocator, size int) Ptr {
	t.Helper()
	p, err := a.Malloc(size)
	require.NoError(t, err, "Malloc(%d)", size)
	require.NotEqual(t, Nil, p)
	return p
}

// assertInvariants checks the chain with Check and verifies that the
// blocks tile the region from the first header to the break.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())

	blocks := a.Blocks()
	if len(blocks) == 0 {
		return
	}
	end := blocks[0].Header
	for i, b := range blocks {
		require.Equal(t, end, b.Header, "block %d does not start where block %d ends", i, i-1)
		require.Equal(t, b.Header+format.HeaderSize, int(b.Ptr), "block %d payload offset", i)
		require.Zero(t, b.Size%format.Alignment, "block %d size %d not aligned", i, b.Size)
		end = b.Header + format.HeaderSize + b.Size
	}
	brk, err := a.r.Sbrk(0)
	require.NoError(t, err)
	require.Equal(t, brk, end, "blocks must tile the region up to the break")
}

// requireFault runs fn and asserts it panics with a *Fault of the given kind.
func requireFault(t testing.TB, kind FaultKind, fn func()) *Fault {
	t.Helper()
	var got *Fault
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected %s fault, got none", kind)
			f, ok := r.(*Fault)
			require.True(t, ok, "panic value %T is not *Fault: %v", r, r)
			got = f
		}()
		fn()
	}()
	require.Equal(t, kind, got.Kind, "fault: %v", got)
	return got
}

// freeSizes returns the sizes of free blocks in address order.
func freeSizes(a *Allocator) []int {
	var out []int
	for _, b := range a.Blocks() {
		if b.Free {
			out = append(out, b.Size)
		}
	}
	return out
}

// fill writes a deterministic pattern derived from seed into b.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i*7)
	}
}

// mismatchRegion wraps a region and makes the break jump between the
// grower's query and its extension, as if someone else called sbrk.
type mismatchRegion struct {
	*region.Slice
	armed bool
}

func (m *mismatchRegion) Sbrk(incr int) (int, error) {
	if m.armed && incr > 0 {
		m.armed = false
		if _, err := m.Slice.Sbrk(8); err != nil {
			return 0, err
		}
	}
	return m.Slice.Sbrk(incr)
}
