// Package format describes the in-band block header that prefixes every
// region of memory managed by the allocator. It is the only package that
// knows the header's byte layout; everything above it works in terms of
// header offsets and payload offsets.
package format

// BlockSignature marks a header written by the allocator.
// Layout:
//
//	0x12  'm' 'b'
var BlockSignature = []byte{'m', 'b'}

// blockSignatureU16 is BlockSignature read as a little-endian uint16.
const blockSignatureU16 = uint16('b')<<8 | uint16('m')

const (
	// HeaderSize is the number of bytes occupied by a block header. The
	// payload of a block starts immediately after it.
	//
	// Layout (little-endian):
	//
	//	Offset  Size  Description
	//	0x00    8     Payload size in bytes (header excluded)
	//	0x08    8     Offset of the next header, NoBlock when last
	//	0x10    1     Free flag (1 = free, 0 = in use)
	//	0x11    1     Reserved
	//	0x12    2     Signature "mb"
	//	0x14    4     Reserved
	HeaderSize = 0x18

	// Field offsets within the header.
	BlockSizeOffset      = 0x00
	BlockNextOffset      = 0x08
	BlockFreeOffset      = 0x10
	BlockSignatureOffset = 0x12

	// SignatureSize is the length of BlockSignature.
	SignatureSize = 2

	// Alignment is the allocator's alignment unit. Every payload size is
	// rounded up to a multiple of it.
	Alignment = 4

	// AlignmentMask is Alignment-1, used for fast round-up.
	AlignmentMask = Alignment - 1

	// NoBlock is the next-link value of the last block in the chain.
	NoBlock = ^uint64(0)
)
