package alloc

import (
	"github.com/joshuapare/heapkit/internal/format"
)

// find returns the header offset of a free block of at least need bytes,
// or -1. last is the final block visited; when nothing fits it is the tail
// of the chain (or -1 for an empty chain), ready for the grower to link
// after.
func (a *Allocator) find(need int) (blk, last int) {
	switch a.strategy {
	case BestFit:
		blk, last = a.scanBest(need, false)
	case WorstFit:
		blk, last = a.scanBest(need, true)
	case NextFit:
		blk, last = a.nextFit(need)
	default:
		blk, last = a.firstFit(a.head, need)
	}
	if blk >= 0 {
		a.stats.Reuses++
	}
	return blk, last
}

// fits reports whether the block at hdr is free and holds need bytes.
func fits(mem []byte, hdr, need int) bool {
	return format.ReadFree(mem, hdr) && format.ReadSize(mem, hdr) >= need
}

func (a *Allocator) firstFit(from, need int) (blk, last int) {
	mem := a.mem()
	last = -1
	for cur := from; cur >= 0; cur = format.ReadNext(mem, cur) {
		last = cur
		if fits(mem, cur, need) {
			return cur, last
		}
	}
	return -1, last
}

// scanBest walks the whole chain keeping the block whose slack
// (size - need) is smallest, or largest when worst is set. Ties keep the
// lower address.
func (a *Allocator) scanBest(need int, worst bool) (blk, last int) {
	mem := a.mem()
	blk, last = -1, -1
	bestSlack := 0
	for cur := a.head; cur >= 0; cur = format.ReadNext(mem, cur) {
		last = cur
		if !fits(mem, cur, need) {
			continue
		}
		slack := format.ReadSize(mem, cur) - need
		if blk < 0 || (!worst && slack < bestSlack) || (worst && slack > bestSlack) {
			blk, bestSlack = cur, slack
		}
	}
	return blk, last
}

// nextFit resumes at the cursor, runs to the tail, then wraps to the head
// and stops short of the cursor, so each block is examined at most once.
// The cursor moves to the block found and is cleared on a miss.
func (a *Allocator) nextFit(need int) (blk, last int) {
	start := a.cursor
	if start < 0 {
		start = a.head
	}
	blk, last = a.firstFit(start, need)
	if blk < 0 && start != a.head {
		mem := a.mem()
		for cur := a.head; cur >= 0 && cur != start; cur = format.ReadNext(mem, cur) {
			if fits(mem, cur, need) {
				blk = cur
				break
			}
		}
	}
	a.cursor = blk
	return blk, last
}
