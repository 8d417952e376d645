package format

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Block is a decoded block header.
type Block struct {
	Offset int  // Header offset within the region
	Size   int  // Payload size in bytes, header excluded
	Next   int  // Header offset of the next block, or -1 when last
	Free   bool // True when the block is available for reuse
}

// DataOffset returns the payload offset of the block.
func (b Block) DataOffset() int { return DataOffset(b.Offset) }

// End returns the offset one past the block's last payload byte.
func (b Block) End() int { return b.Offset + Span(b.Size) }

// ParseBlock decodes the header at off. The signature and the payload
// bounds are checked against b.
func ParseBlock(b []byte, off int) (Block, error) {
	hdr, ok := buf.Slice(b, off, HeaderSize)
	if !ok {
		return Block{}, fmt.Errorf("block at %#x: %w", off, ErrTruncated)
	}
	if ReadU16(hdr, BlockSignatureOffset) != blockSignatureU16 {
		return Block{}, fmt.Errorf("block at %#x: %w", off, ErrSignatureMismatch)
	}
	size := ReadU64(hdr, BlockSizeOffset)
	if size > math.MaxInt || !buf.Has(b, DataOffset(off), int(size)) {
		return Block{}, fmt.Errorf("block at %#x: size %d: %w", off, size, ErrTruncated)
	}
	next := -1
	if raw := ReadU64(hdr, BlockNextOffset); raw != NoBlock {
		if raw > math.MaxInt {
			return Block{}, fmt.Errorf("block at %#x: next %#x: %w", off, raw, ErrTruncated)
		}
		next = int(raw)
	}
	return Block{
		Offset: off,
		Size:   int(size),
		Next:   next,
		Free:   hdr[BlockFreeOffset] != 0,
	}, nil
}

// PutBlock encodes blk at blk.Offset, stamping the signature. The caller
// must ensure the header fits in b.
func PutBlock(b []byte, blk Block) {
	off := blk.Offset
	PutU64(b, off+BlockSizeOffset, uint64(blk.Size))
	PutNext(b, off, blk.Next)
	PutFree(b, off, blk.Free)
	b[off+BlockFreeOffset+1] = 0
	copy(b[off+BlockSignatureOffset:off+BlockSignatureOffset+SignatureSize], BlockSignature)
	PutU16(b, off+BlockSignatureOffset+SignatureSize, 0)
	PutU16(b, off+BlockSignatureOffset+SignatureSize+2, 0)
}

// ReadSize returns the payload size stored in the header at off.
func ReadSize(b []byte, off int) int {
	return int(ReadU64(b, off+BlockSizeOffset))
}

// PutSize stores the payload size in the header at off.
func PutSize(b []byte, off int, size int) {
	PutU64(b, off+BlockSizeOffset, uint64(size))
}

// ReadNext returns the next-link stored in the header at off, -1 when last.
func ReadNext(b []byte, off int) int {
	raw := ReadU64(b, off+BlockNextOffset)
	if raw == NoBlock {
		return -1
	}
	return int(raw)
}

// PutNext stores the next-link in the header at off. Negative means last.
func PutNext(b []byte, off int, next int) {
	if next < 0 {
		PutU64(b, off+BlockNextOffset, NoBlock)
		return
	}
	PutU64(b, off+BlockNextOffset, uint64(next))
}

// ReadFree reports the free flag stored in the header at off.
func ReadFree(b []byte, off int) bool {
	return b[off+BlockFreeOffset] != 0
}

// PutFree stores the free flag in the header at off.
func PutFree(b []byte, off int, free bool) {
	if free {
		b[off+BlockFreeOffset] = 1
		return
	}
	b[off+BlockFreeOffset] = 0
}
