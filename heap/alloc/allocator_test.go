package alloc

import (
	"bytes"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

func TestMallocGrowsExactSpan(t *testing.T) {
	a, r := newTestAllocator(t, FirstFit)

	p := mustMalloc(t, a, 10)
	assert.Equal(t, Ptr(format.HeaderSize), p, "first payload sits right after the first header")
	assert.Equal(t, 12, a.UsableSize(p), "10 bytes round up to 12")

	brk, err := r.Sbrk(0)
	require.NoError(t, err)
	assert.Equal(t, format.HeaderSize+12, brk, "grow must request exactly header + aligned size")

	st := a.Stats()
	assert.EqualValues(t, 1, st.Mallocs)
	assert.EqualValues(t, 1, st.Grows)
	assert.EqualValues(t, 1, st.Blocks)
	assert.EqualValues(t, 10, st.Requested, "requested counts raw bytes")
	assert.EqualValues(t, 12, st.MaxHeap, "max heap counts aligned payload bytes")
	assert.EqualValues(t, 0, st.Reuses)
	assertInvariants(t, a)
}

func TestMallocZeroSize(t *testing.T) {
	a, r := newTestAllocator(t, FirstFit)

	p, err := a.Malloc(0)
	require.ErrorIs(t, err, ErrZeroSize)
	assert.Equal(t, Nil, p)

	brk, _ := r.Sbrk(0)
	assert.Zero(t, brk, "zero-size request must not touch the heap")
	assert.Equal(t, Stats{}, a.Stats())
}

func TestMallocNegativeSize(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	_, err := a.Malloc(-4)
	require.ErrorIs(t, err, ErrNegativeSize)
	assert.Equal(t, Stats{}, a.Stats())
}

func TestMallocHugeSizeFailsCleanly(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	_, err := a.Malloc(math.MaxInt)
	require.ErrorIs(t, err, ErrNoSpace)
	_, err = a.Malloc(math.MaxInt - 8)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Zero(t, a.Stats().Blocks)
	assertInvariants(t, a)
}

func TestMallocExhaustion(t *testing.T) {
	r := region.NewSlice(256)
	a := New(r)

	p := mustMalloc(t, a, 100)
	before := a.Stats()

	_, err := a.Malloc(200)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.ErrorIs(t, err, region.ErrExhausted, "region cause should be preserved")

	after := a.Stats()
	assert.Equal(t, before.Blocks, after.Blocks)
	assert.Equal(t, before.Grows, after.Grows)
	assert.Equal(t, before.Mallocs, after.Mallocs)
	assert.Equal(t, before.Requested+200, after.Requested, "requested is recorded before the attempt")
	assert.Len(t, a.Payload(p), 100)
	assertInvariants(t, a)
}

func TestFreeNilIsNoop(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	a.Free(Nil)
	assert.Equal(t, Stats{}, a.Stats())
}

func TestFreeReuse(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	p := mustMalloc(t, a, 64)
	mustMalloc(t, a, 8) // keeps p from being the tail
	a.Free(p)

	q := mustMalloc(t, a, 64)
	assert.Equal(t, p, q, "freed block is reused")

	st := a.Stats()
	assert.EqualValues(t, 1, st.Reuses)
	assert.EqualValues(t, 2, st.Grows)
	assert.EqualValues(t, 1, st.Frees)
	assert.EqualValues(t, 3, st.Mallocs)
	assertInvariants(t, a)
}

func TestRoundTripWithInterleavedTraffic(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			a, _ := newTestAllocator(t, s)

			keep := mustMalloc(t, a, 333)
			want := make([]byte, 333)
			fill(want, 0x5a)
			copy(a.Payload(keep), want)

			var others []Ptr
			for i := 1; i <= 40; i++ {
				p := mustMalloc(t, a, i*13)
				fill(a.Payload(p), byte(i))
				others = append(others, p)
				if i%3 == 0 {
					a.Free(others[0])
					others = others[1:]
				}
			}
			for _, p := range others {
				a.Free(p)
			}

			assert.True(t, bytes.Equal(want, a.Payload(keep)[:333]), "payload changed under unrelated traffic")
			assertInvariants(t, a)
		})
	}
}

func TestCallocZeroFillsReusedMemory(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	p := mustMalloc(t, a, 96)
	mustMalloc(t, a, 4)
	for i := range a.Payload(p) {
		a.Payload(p)[i] = 0xff
	}
	a.Free(p)

	q, err := a.Calloc(6, 16)
	require.NoError(t, err)
	assert.Equal(t, p, q, "calloc should reuse the dirty block")
	payload := a.Payload(q)
	require.Len(t, payload, 96)
	for i, b := range payload {
		require.Zerof(t, b, "byte %d not zeroed", i)
	}
}

func TestCallocZeroesSlackFromUnsplitBlock(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	p := mustMalloc(t, a, 64)
	mustMalloc(t, a, 4)
	fill(a.Payload(p), 1)
	a.Free(p)

	// 40 bytes leaves 24 bytes of slack: too little to split off.
	q, err := a.Calloc(10, 4)
	require.NoError(t, err)
	require.Equal(t, p, q)
	assert.Len(t, a.Payload(q), 64)
	assert.Equal(t, make([]byte, 64), a.Payload(q))
}

func TestCallocOverflow(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	_, err := a.Calloc(math.MaxInt/2+1, 2)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = a.Calloc(-1, 8)
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, Stats{}, a.Stats(), "overflow is rejected before malloc")
}

func TestCallocZeroCount(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	_, err := a.Calloc(0, 16)
	require.ErrorIs(t, err, ErrZeroSize)
}

func TestReallocPreservesPrefix(t *testing.T) {
	tests := []struct {
		name     string
		old, new int
	}{
		{"grow", 40, 200},
		{"shrink", 200, 40},
		{"same", 64, 64},
		{"unaligned", 13, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAllocator(t, BestFit)

			p := mustMalloc(t, a, tt.old)
			orig := make([]byte, tt.old)
			fill(orig, 0x21)
			copy(a.Payload(p), orig)

			q, err := a.Realloc(p, tt.new)
			require.NoError(t, err)
			require.NotEqual(t, p, q, "realloc never resizes in place")

			n := min(tt.old, tt.new)
			assert.Equal(t, orig[:n], a.Payload(q)[:n])
			assert.GreaterOrEqual(t, a.UsableSize(q), tt.new)

			requireFault(t, FaultDoubleFree, func() { a.Free(p) })
		})
	}
}

func TestReallocNilAllocates(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p, err := a.Realloc(Nil, 24)
	require.NoError(t, err)
	assert.NotEqual(t, Nil, p)
	assert.EqualValues(t, 1, a.Stats().Mallocs)
}

func TestReallocZeroFrees(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 24)

	q, err := a.Realloc(p, 0)
	require.NoError(t, err)
	assert.Equal(t, Nil, q)
	assert.EqualValues(t, 1, a.Stats().Frees)
	assert.Equal(t, []int{24}, freeSizes(a))
}

func TestReallocCopiesUsablePayload(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	// A 130-byte request reuses a 132-byte block without splitting, so the
	// two slack bytes still hold the previous owner's data.
	p := mustMalloc(t, a, 132)
	mustMalloc(t, a, 8)
	fill(a.Payload(p), 9)
	a.Free(p)

	q := mustMalloc(t, a, 130)
	require.Equal(t, p, q)
	require.Equal(t, 132, a.UsableSize(q))
	before := append([]byte(nil), a.Payload(q)...)

	r, err := a.Realloc(q, 388)
	require.NoError(t, err)
	assert.Equal(t, before, a.Payload(r)[:132], "realloc copies the whole usable payload")
	assertInvariants(t, a)
}

func TestReallocFailureKeepsOldBlock(t *testing.T) {
	r := region.NewSlice(512)
	a := New(r)

	p := mustMalloc(t, a, 100)
	fill(a.Payload(p), 3)
	want := append([]byte(nil), a.Payload(p)...)

	q, err := a.Realloc(p, 4096)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, Nil, q)
	assert.Equal(t, want, a.Payload(p), "old block must survive a failed realloc")
	assert.EqualValues(t, 0, a.Stats().Frees)
	assertInvariants(t, a)
}

func TestSplitConservesBytes(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)

	p := mustMalloc(t, a, 200)
	mustMalloc(t, a, 4)
	a.Free(p)

	q := mustMalloc(t, a, 20)
	require.Equal(t, p, q)

	blocks := a.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, 20, blocks[0].Size)
	assert.False(t, blocks[0].Free)
	assert.True(t, blocks[1].Free)
	assert.Equal(t, 200, blocks[0].Size+blocks[1].Size+format.HeaderSize,
		"split must neither gain nor lose bytes")

	st := a.Stats()
	assert.EqualValues(t, 1, st.Splits)
	assert.EqualValues(t, 3, st.Blocks)
	assertInvariants(t, a)
}

func TestSplitThreshold(t *testing.T) {
	tests := []struct {
		name      string
		block     int
		need      int
		wantSplit bool
	}{
		{"exact fit", 64, 64, false},
		{"one header short", 64, 20, false},          // 64 < 20 + 48
		{"exactly two headers spare", 68, 20, true},  // 68 == 20 + 48
		{"large remainder", 512, 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAllocator(t, FirstFit)
			p := mustMalloc(t, a, tt.block)
			mustMalloc(t, a, 4)
			a.Free(p)

			q := mustMalloc(t, a, tt.need)
			require.Equal(t, p, q)
			if tt.wantSplit {
				assert.Equal(t, tt.need, a.UsableSize(q))
				assert.EqualValues(t, 1, a.Stats().Splits)
				assert.Equal(t, []int{tt.block - tt.need - format.HeaderSize}, freeSizes(a))
			} else {
				assert.Equal(t, tt.block, a.UsableSize(q), "whole block handed out")
				assert.EqualValues(t, 0, a.Stats().Splits)
				assert.Empty(t, freeSizes(a))
			}
			assertInvariants(t, a)
		})
	}
}

func TestCoalesceConvergence(t *testing.T) {
	sizes := []int{16, 40, 8, 120, 64, 4, 32}
	orders := map[string]func([]Ptr) []Ptr{
		"forward": func(ps []Ptr) []Ptr { return ps },
		"reverse": func(ps []Ptr) []Ptr {
			out := make([]Ptr, len(ps))
			for i, p := range ps {
				out[len(ps)-1-i] = p
			}
			return out
		},
		"interleaved": func(ps []Ptr) []Ptr {
			var out []Ptr
			for i := 0; i < len(ps); i += 2 {
				out = append(out, ps[i])
			}
			for i := 1; i < len(ps); i += 2 {
				out = append(out, ps[i])
			}
			return out
		},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAllocator(t, FirstFit)
			var ptrs []Ptr
			total := 0
			for _, s := range sizes {
				ptrs = append(ptrs, mustMalloc(t, a, s))
				total += s
			}
			require.EqualValues(t, len(sizes), a.Stats().Grows)

			for _, p := range order(ptrs) {
				a.Free(p)
				assertInvariants(t, a)
			}

			k := len(sizes)
			assert.Equal(t, []int{total + (k-1)*format.HeaderSize}, freeSizes(a))
			assert.EqualValues(t, 1, a.Stats().Blocks)
			assert.EqualValues(t, k-1, a.Stats().Coalesces)
		})
	}
}

func TestCoalesceCollapsesRunInOnePass(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p1 := mustMalloc(t, a, 8)
	p2 := mustMalloc(t, a, 8)
	p3 := mustMalloc(t, a, 8)
	p4 := mustMalloc(t, a, 8)
	mustMalloc(t, a, 8)

	a.Free(p1)
	a.Free(p3)
	// p1 and p3 are free but separated by p2; freeing p2 must merge all three.
	a.Free(p2)
	assert.Equal(t, []int{8*3 + 2*format.HeaderSize}, freeSizes(a))

	a.Free(p4)
	assert.Equal(t, []int{8*4 + 3*format.HeaderSize}, freeSizes(a))
	assert.EqualValues(t, 3, a.Stats().Coalesces)
	assertInvariants(t, a)
}

func TestGrowthAccounting(t *testing.T) {
	a, _ := newTestAllocator(t, WorstFit)

	sizes := []int{4, 17, 100, 3, 64, 1000}
	want := int64(0)
	for _, s := range sizes {
		mustMalloc(t, a, s)
		want += int64(format.Align4(s))
	}
	st := a.Stats()
	assert.EqualValues(t, len(sizes), st.Grows)
	assert.Equal(t, want, st.MaxHeap)

	// Reuse does not add to the growth statistic.
	p := mustMalloc(t, a, 40)
	a.Free(p)
	mustMalloc(t, a, 40)
	assert.Equal(t, want+40, a.Stats().MaxHeap)
}

func TestFaultDoubleFree(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 32)
	mustMalloc(t, a, 32)
	a.Free(p)

	f := requireFault(t, FaultDoubleFree, func() { a.Free(p) })
	assert.Equal(t, format.HeaderOffset(int(p)), f.Addr)
	assert.Contains(t, f.Error(), "double free")
	assert.True(t, errors.HasAssertionFailure(f), "fault should be an assertion failure")
}

func TestFaultDoubleFreeAfterCoalesce(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 32)
	q := mustMalloc(t, a, 32)
	a.Free(p)
	a.Free(q) // q merges into p

	f := requireFault(t, FaultDoubleFree, func() { a.Free(q) })
	assert.Contains(t, f.Detail, "inside free block")
}

func TestFaultBadPointer(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 64)

	requireFault(t, FaultBadPointer, func() { a.Free(p + 4) })
	requireFault(t, FaultBadPointer, func() { a.Free(Ptr(4)) })
	requireFault(t, FaultBadPointer, func() { a.Free(Ptr(1 << 30)) })
	requireFault(t, FaultBadPointer, func() { a.Free(Ptr(-8)) })
}

func TestFaultUseAfterFree(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 16)
	mustMalloc(t, a, 16)
	a.Free(p)

	requireFault(t, FaultUseAfterFree, func() { a.Payload(p) })
	requireFault(t, FaultUseAfterFree, func() { _, _ = a.Realloc(p, 32) })
}

func TestFaultCorruptHeader(t *testing.T) {
	a, r := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 16)
	q := mustMalloc(t, a, 16)

	// Smash the first header's signature.
	r.Bytes()[format.BlockSignatureOffset] = 'x'
	requireFault(t, FaultCorruptHeader, func() { a.Free(q) })
	require.ErrorIs(t, a.Check(), ErrCorrupt)
	_ = p
}

func TestFaultRegionMismatch(t *testing.T) {
	mr := &mismatchRegion{Slice: region.NewSlice(4096)}
	a := New(mr)
	mustMalloc(t, a, 16)

	mr.armed = true
	f := requireFault(t, FaultRegionMismatch, func() { _, _ = a.Malloc(16) })
	assert.Contains(t, f.Detail, "break moved")
}

func TestFaultHandlerObservesFault(t *testing.T) {
	var seen []*Fault
	a := New(region.NewSlice(4096), WithFaultHandler(func(f *Fault) { seen = append(seen, f) }))
	p := mustMalloc(t, a, 16)
	a.Free(p)

	requireFault(t, FaultDoubleFree, func() { a.Free(p) })
	require.Len(t, seen, 1, "handler sees the fault before the panic")
	assert.Equal(t, FaultDoubleFree, seen[0].Kind)
}

func TestPayloadAliasesHeap(t *testing.T) {
	a, r := newTestAllocator(t, FirstFit)
	p := mustMalloc(t, a, 8)
	copy(a.Payload(p), "heapkit!")
	assert.Equal(t, "heapkit!", string(r.Bytes()[int(p):int(p)+8]))
	assert.Equal(t, 8, cap(a.Payload(p)), "payload capacity is clipped")
}

func TestDump(t *testing.T) {
	a, _ := newTestAllocator(t, NextFit)
	p := mustMalloc(t, a, 8)
	mustMalloc(t, a, 16)
	a.Free(p)

	var out bytes.Buffer
	a.Dump(&out)
	assert.Contains(t, out.String(), "next-fit heap, 2 blocks")
	assert.Contains(t, out.String(), "size=8        free")
	assert.Contains(t, out.String(), "size=16       used")
}
