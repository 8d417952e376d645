package alloc

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Allocator is a free-list allocator over one region. It owns the region's
// contents from the break it observes at its first grow onwards.
type Allocator struct {
	r        region.Region
	strategy Strategy
	log      *slog.Logger
	onFault  func(*Fault)

	head   int // header offset of the first block, -1 when empty
	cursor int // next-fit cursor, -1 when unset

	stats Stats

	// Test hook: called after each successful grow (nil in production)
	onGrow func(hdr, size int)
}

// New creates an allocator that grows r on demand.
func New(r region.Region, opts ...Option) *Allocator {
	a := &Allocator{
		r:        r,
		strategy: FirstFit,
		log:      logger.L,
		head:     -1,
		cursor:   -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strategy returns the configured block finder.
func (a *Allocator) Strategy() Strategy { return a.strategy }

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats { return a.stats }

// mem returns the committed region. It must be re-read after a grow.
func (a *Allocator) mem() []byte { return a.r.Bytes() }

// Malloc returns a pointer to at least size bytes of uninitialized memory.
// A zero size fails with ErrZeroSize; an exhausted region with ErrNoSpace.
func (a *Allocator) Malloc(size int) (Ptr, error) {
	if size < 0 {
		return Nil, errors.Wrapf(ErrNegativeSize, "malloc(%d)", size)
	}
	a.stats.Requested += int64(size)

	if size > math.MaxInt-format.AlignmentMask {
		return Nil, errors.Wrapf(ErrNoSpace, "malloc(%d)", size)
	}
	need := format.Align4(size)
	if need == 0 {
		return Nil, ErrZeroSize
	}

	blk, last := a.find(need)
	if blk < 0 {
		var err error
		if blk, err = a.grow(last, need); err != nil {
			return Nil, err
		}
	} else {
		a.split(blk, need)
	}

	format.PutFree(a.mem(), blk, false)
	a.stats.Mallocs++
	return Ptr(format.DataOffset(blk)), nil
}

// Calloc allocates count*size bytes and zeroes the whole payload.
// A product that overflows int fails with ErrOverflow.
func (a *Allocator) Calloc(count, size int) (Ptr, error) {
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return Nil, errors.Wrapf(ErrOverflow, "calloc(%d, %d)", count, size)
	}
	p, err := a.Malloc(total)
	if err != nil {
		return Nil, err
	}
	mem := a.mem()
	hdr := format.HeaderOffset(int(p))
	clear(mem[int(p) : int(p)+format.ReadSize(mem, hdr)])
	return p, nil
}

// Realloc returns a block of size bytes holding the first min(old, size)
// bytes of p. A Nil p behaves as Malloc; a zero size frees p and returns
// Nil. The block always moves. When the new allocation fails, p is left
// untouched and the error is returned.
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return a.Malloc(size)
	}
	if size == 0 {
		a.Free(p)
		return Nil, nil
	}

	old := a.resolve(p, false)
	oldSize := format.ReadSize(a.mem(), old)

	np, err := a.Malloc(size)
	if err != nil {
		return Nil, err
	}
	mem := a.mem()
	n := min(oldSize, size)
	copy(mem[int(np):int(np)+n], mem[int(p):int(p)+n])
	a.Free(p)
	return np, nil
}

// Free releases p. Nil is a no-op. Releasing a free block or a pointer the
// allocator never returned is a fault.
func (a *Allocator) Free(p Ptr) {
	if p == Nil {
		return
	}
	hdr := a.resolve(p, true)
	format.PutFree(a.mem(), hdr, true)
	a.coalesce()
	a.stats.Frees++
}

// split carves the tail of blk into a new free block when what remains
// after need bytes can hold a header and a payload of at least one header.
func (a *Allocator) split(blk, need int) {
	mem := a.mem()
	size := format.ReadSize(mem, blk)
	if size < need+2*format.HeaderSize {
		return
	}
	tail := format.DataOffset(blk) + need
	format.PutBlock(mem, format.Block{
		Offset: tail,
		Size:   size - need - format.HeaderSize,
		Next:   format.ReadNext(mem, blk),
		Free:   true,
	})
	format.PutSize(mem, blk, need)
	format.PutNext(mem, blk, tail)

	a.stats.Splits++
	a.stats.Blocks++
}

// coalesce merges every run of physically adjacent free blocks in one pass
// from the head. After a merge the scan stays on the survivor so runs of
// three or more collapse together.
func (a *Allocator) coalesce() {
	mem := a.mem()
	cur := a.head
	for cur >= 0 {
		next := format.ReadNext(mem, cur)
		if next < 0 {
			return
		}
		size := format.ReadSize(mem, cur)
		if !format.ReadFree(mem, cur) || !format.ReadFree(mem, next) ||
			format.DataOffset(cur)+size != next {
			cur = next
			continue
		}

		format.PutSize(mem, cur, size+format.HeaderSize+format.ReadSize(mem, next))
		format.PutNext(mem, cur, format.ReadNext(mem, next))
		// Scrub the absorbed header so stale pointers to it fail to decode.
		clear(mem[next+format.BlockSignatureOffset : next+format.BlockSignatureOffset+format.SignatureSize])
		if a.cursor == next {
			a.cursor = cur
		}

		a.stats.Coalesces++
		a.stats.Blocks--
	}
}
