package format

// Align4 returns n aligned up to the next 4-byte boundary.
// Zero stays zero so a zero-size request can still be rejected after
// rounding.
//
// Example:
//
//	Align4(0) = 0
//	Align4(1) = 4
//	Align4(4) = 4
//	Align4(5) = 8
func Align4(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// DataOffset returns the payload offset of the block whose header starts at hdr.
func DataOffset(hdr int) int {
	return hdr + HeaderSize
}

// HeaderOffset returns the header offset of the block whose payload starts at ptr.
func HeaderOffset(ptr int) int {
	return ptr - HeaderSize
}

// Span returns the number of bytes a block with the given payload size
// occupies in the region, header included.
func Span(size int) int {
	return HeaderSize + size
}
