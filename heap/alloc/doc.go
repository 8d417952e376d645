// Package alloc implements a free-list allocator over a single growable,
// non-relocating region.
//
// # Overview
//
// Every block of managed memory starts with a fixed-size header (see
// internal/format) followed by its payload. Headers are linked into one
// singly linked chain in address order. The chain holds free and in-use
// blocks alike; the header's free flag is the only occupancy record.
//
//	+--------+---------+--------+---------+--------+---------+
//	| header | payload | header | payload | header | payload |  ...
//	+--------+---------+--------+---------+--------+---------+
//	    |                  ^  |                ^
//	    +------ next ------+  +----- next -----+
//
// # Allocator Interface
//
//   - Malloc(size): find a free block under the configured Strategy,
//     splitting it when the remainder can stand as a block of its own,
//     or grow the region by exactly header + size bytes.
//   - Calloc(count, size): Malloc(count*size) then zero the payload.
//   - Realloc(p, size): allocate, copy the common prefix, free the old block.
//   - Free(p): mark the block free and coalesce adjacent free blocks.
//
// # Strategies
//
// The block finder is selected per Allocator:
//
//	FirstFit  first free block large enough, scanning from the head
//	BestFit   smallest sufficient block (ties keep the lowest address)
//	WorstFit  largest sufficient block (ties keep the lowest address)
//	NextFit   first fit, resuming where the previous search stopped
//
// # Sizes and Alignment
//
// Requests are rounded up to 4 bytes. A zero-byte request fails with
// ErrZeroSize without touching the heap.
//
// # Faults
//
// Releasing a block twice, passing a pointer the allocator never returned,
// or observing the region break move underneath a grow are contract
// violations. They are reported as a *Fault to the fault handler, which by
// default logs and panics. The allocator never continues past a fault.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally; pkg/malloc wraps a default instance in a mutex.
package alloc
