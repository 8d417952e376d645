package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Result summarizes a replay.
type Result struct {
	Steps   int           `json:"steps"`   // operations executed after repeat expansion
	Failed  int           `json:"failed"`  // allocations that returned an error
	Live    int           `json:"live"`    // handles still allocated at the end
	Elapsed time.Duration `json:"elapsed"` // wall time of the replay
	Stats   alloc.Stats   `json:"stats"`
}

// OpError reports which step of a script failed.
type OpError struct {
	Index  int // index into Script.Ops
	Op     Kind
	Handle string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("workload: op %d (%s %s): %v", e.Index, e.Op, e.Handle, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

type handle struct {
	p    alloc.Ptr
	size int  // bytes requested
	live bool // false once freed; p is kept so stale use faults
}

type runner struct {
	a       *alloc.Allocator
	handles map[string]*handle
	res     Result
}

// Run replays s against a. Allocation failures are counted, not returned;
// the handle then holds Nil as a C caller would. A heap fault raised by
// the allocator is recovered and returned as an *OpError wrapping the
// *alloc.Fault. Context cancellation is checked between steps.
func Run(ctx context.Context, a *alloc.Allocator, s *Script) (res Result, err error) {
	r := &runner{a: a, handles: make(map[string]*handle)}
	start := time.Now()
	defer func() {
		r.res.Elapsed = time.Since(start)
		r.res.Stats = a.Stats()
		for _, h := range r.handles {
			if h.live && h.p != alloc.Nil {
				r.res.Live++
			}
		}
		res = r.res
	}()

	for i, op := range s.Ops {
		for _, name := range op.handles() {
			if err := ctx.Err(); err != nil {
				return r.res, err
			}
			if err := r.step(op, name); err != nil {
				return r.res, &OpError{Index: i, Op: op.Op, Handle: name, Err: err}
			}
			r.res.Steps++
		}
	}
	return r.res, nil
}

// step executes one expanded op, converting an allocator fault into an error.
func (r *runner) step(op Op, name string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			f, ok := v.(*alloc.Fault)
			if !ok {
				panic(v)
			}
			err = f
		}
	}()

	switch op.Op {
	case OpMalloc:
		p, err := r.a.Malloc(op.Size)
		r.set(name, p, op.Size, err)
	case OpCalloc:
		p, err := r.a.Calloc(op.Count, op.Size)
		r.set(name, p, op.Count*op.Size, err)
	case OpRealloc:
		old := alloc.Nil
		if h, ok := r.handles[name]; ok {
			old = h.p
		}
		p, err := r.a.Realloc(old, op.Size)
		if err != nil {
			// The old block survives a failed realloc.
			r.fail(name, op.Size, err)
			return nil
		}
		r.handles[name] = &handle{p: p, size: op.Size, live: p != alloc.Nil}
	case OpFree:
		h, ok := r.handles[name]
		if !ok {
			return ErrUnknownHandle
		}
		r.a.Free(h.p)
		h.live = false
	case OpFill, OpVerify:
		h, ok := r.handles[name]
		if !ok {
			return ErrUnknownHandle
		}
		if h.p == alloc.Nil {
			return nil
		}
		n := h.size
		if op.Size > 0 {
			n = op.Size
		}
		b := r.a.Payload(h.p)
		if n > len(b) {
			return errors.Newf("%d bytes requested, block holds %d", n, len(b))
		}
		if op.Op == OpFill {
			for i := range b[:n] {
				b[i] = byte(op.Byte)
			}
			return nil
		}
		for i, c := range b[:n] {
			if c != byte(op.Byte) {
				return errors.Wrapf(ErrVerify, "offset %d: got %#02x, want %#02x", i, c, op.Byte)
			}
		}
	}
	return nil
}

func (r *runner) set(name string, p alloc.Ptr, size int, err error) {
	if err != nil {
		r.fail(name, size, err)
		r.handles[name] = &handle{p: alloc.Nil}
		return
	}
	r.handles[name] = &handle{p: p, size: size, live: true}
}

func (r *runner) fail(name string, size int, err error) {
	r.res.Failed++
	logger.L.Debug("allocation failed",
		"handle", name, logger.Size(size), logger.Error(err))
}
