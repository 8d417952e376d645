package alloc

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// grow extends the region by exactly one header plus need bytes, writes an
// in-use block there and links it after last (or makes it the head).
// Region refusal is returned as ErrNoSpace with nothing changed.
func (a *Allocator) grow(last, need int) (int, error) {
	span, ok := buf.AddOverflowSafe(format.HeaderSize, need)
	if !ok {
		return -1, errors.Wrapf(ErrNoSpace, "grow: span for %d bytes overflows", need)
	}

	before, err := a.r.Sbrk(0)
	if err != nil {
		return -1, fmt.Errorf("%w: query break: %w", ErrNoSpace, err)
	}
	hdr, err := a.r.Sbrk(span)
	if err != nil {
		a.log.Debug("grow refused", logger.Size(span), logger.Error(err))
		return -1, fmt.Errorf("%w: grow by %d bytes: %w", ErrNoSpace, span, err)
	}
	if hdr != before {
		a.fault(FaultRegionMismatch, hdr,
			fmt.Sprintf("break moved from %#x to %#x between query and extend", before, hdr))
	}

	mem := a.mem()
	format.PutBlock(mem, format.Block{Offset: hdr, Size: need, Next: -1, Free: false})
	if last >= 0 {
		if next := format.ReadNext(mem, last); next >= 0 {
			a.fault(FaultCorruptHeader, last, fmt.Sprintf("tail links to %#x", next))
		}
		format.PutNext(mem, last, hdr)
	} else {
		a.head = hdr
	}

	a.stats.Grows++
	a.stats.Blocks++
	a.stats.MaxHeap += int64(need)

	a.log.Debug("grow", logger.Addr(hdr), logger.Size(need))
	if a.onGrow != nil {
		a.onGrow(hdr, need)
	}
	return hdr, nil
}
