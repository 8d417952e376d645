package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// resolve maps p back to its header and checks the header is a block of
// the chain that is currently in use. Any other outcome is a fault:
// a pointer into a free block is a double free when releasing is set and
// a use after free otherwise.
func (a *Allocator) resolve(p Ptr, releasing bool) int {
	hdr := format.HeaderOffset(int(p))
	mem := a.mem()
	if hdr < 0 || int(p) > len(mem) {
		a.fault(FaultBadPointer, int(p), fmt.Sprintf("outside heap [0, %#x)", len(mem)))
	}

	cur := a.head
	for cur >= 0 && cur < hdr {
		blk, err := format.ParseBlock(mem, cur)
		if err != nil {
			a.fault(FaultCorruptHeader, cur, err.Error())
		}
		if hdr < blk.End() {
			// p lies inside this block's span but not at its payload start.
			if blk.Free {
				a.faultFree(hdr, releasing, fmt.Sprintf("inside free block at %#x", cur))
			}
			a.fault(FaultBadPointer, int(p), fmt.Sprintf("inside block at %#x", cur))
		}
		cur = blk.Next
	}
	if cur != hdr {
		a.fault(FaultBadPointer, int(p), "not a block payload")
	}

	blk, err := format.ParseBlock(mem, hdr)
	if err != nil {
		a.fault(FaultCorruptHeader, hdr, err.Error())
	}
	if blk.Free {
		a.faultFree(hdr, releasing, "block already free")
	}
	return hdr
}

func (a *Allocator) faultFree(hdr int, releasing bool, detail string) {
	if releasing {
		a.fault(FaultDoubleFree, hdr, detail)
	}
	a.fault(FaultUseAfterFree, hdr, detail)
}

// fault reports a contract violation and does not return.
func (a *Allocator) fault(kind FaultKind, addr int, detail string) {
	f := newFault(kind, addr, detail)
	a.log.Error("heap fault", logger.Addr(addr), logger.Error(f))
	if a.onFault != nil {
		a.onFault(f)
	}
	panic(f)
}
