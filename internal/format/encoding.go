package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls, so there is no benefit in going through unsafe pointers.

// PutU16 writes a uint16 value to the buffer at the specified offset in little-endian format.
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU16 reads a uint16 value from the buffer at the specified offset in little-endian format.
func ReadU16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
