package alloc

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/internal/format"
)

// Payload returns the usable bytes of the in-use block at p. The slice
// aliases the heap and is valid until p is freed.
func (a *Allocator) Payload(p Ptr) []byte {
	hdr := a.resolve(p, false)
	mem := a.mem()
	n := format.ReadSize(mem, hdr)
	return mem[int(p) : int(p)+n : int(p)+n]
}

// UsableSize returns the payload size of the in-use block at p. It is the
// aligned request, or more when a reused block was too small to split.
func (a *Allocator) UsableSize(p Ptr) int {
	return format.ReadSize(a.mem(), a.resolve(p, false))
}

// Blocks walks the chain and describes each block in address order.
func (a *Allocator) Blocks() []BlockInfo {
	mem := a.mem()
	out := make([]BlockInfo, 0, a.stats.Blocks)
	for cur := a.head; cur >= 0; cur = format.ReadNext(mem, cur) {
		out = append(out, BlockInfo{
			Header: cur,
			Ptr:    Ptr(format.DataOffset(cur)),
			Size:   format.ReadSize(mem, cur),
			Free:   format.ReadFree(mem, cur),
		})
	}
	return out
}

// Check verifies the chain: every header decodes, blocks ascend without
// overlapping, no two physically adjacent blocks are both free, the block
// counter matches the chain length, and the next-fit cursor is a chain
// member.
func (a *Allocator) Check() error {
	mem := a.mem()
	var (
		count        int64
		prev         format.Block
		havePrev     bool
		cursorInList = a.cursor < 0
	)
	for cur := a.head; cur >= 0; {
		blk, err := format.ParseBlock(mem, cur)
		if err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrCorrupt, count, err)
		}
		if havePrev {
			if blk.Offset < prev.End() {
				return errors.Wrapf(ErrCorrupt, "block at %#x overlaps block at %#x (ends %#x)",
					blk.Offset, prev.Offset, prev.End())
			}
			if prev.Free && blk.Free && prev.End() == blk.Offset {
				return errors.Wrapf(ErrCorrupt, "adjacent free blocks at %#x and %#x", prev.Offset, blk.Offset)
			}
		}
		if cur == a.cursor {
			cursorInList = true
		}
		count++
		prev, havePrev = blk, true
		cur = blk.Next
	}
	if count != a.stats.Blocks {
		return errors.Wrapf(ErrCorrupt, "chain has %d blocks, counter says %d", count, a.stats.Blocks)
	}
	if !cursorInList {
		return errors.Wrapf(ErrCorrupt, "next-fit cursor %#x is not a block", a.cursor)
	}
	return nil
}

// Dump writes one line per block to w.
func (a *Allocator) Dump(w io.Writer) {
	blocks := a.Blocks()
	fmt.Fprintf(w, "%s heap, %d blocks:\n", a.strategy, len(blocks))
	for _, b := range blocks {
		state := "used"
		if b.Free {
			state = "free"
		}
		fmt.Fprintf(w, "  header=%#08x ptr=%#08x size=%-8d %s\n", b.Header, int(b.Ptr), b.Size, state)
	}
}
