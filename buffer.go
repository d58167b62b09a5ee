package x86asm

import "encoding/binary"

// CodeBuffer is an append-only byte sink. It is the sole owner of the byte
// slice backing a single encoding session: no aliasing is permitted, so a
// CodeBuffer must not be shared between two concurrently-running encoders.
type CodeBuffer struct {
	b []byte
}

// NewCodeBuffer returns an empty, ready to use CodeBuffer.
func NewCodeBuffer() *CodeBuffer {
	return &CodeBuffer{}
}

// Offset returns the current length of the buffer, i.e. where the next
// emitted byte will land.
func (c *CodeBuffer) Offset() int { return len(c.b) }

// Bytes returns the buffer's current contents. The slice is invalidated by
// any further Emit/Patch call.
func (c *CodeBuffer) Bytes() []byte { return c.b }

// EmitU8 appends a single byte.
func (c *CodeBuffer) EmitU8(v byte) { c.b = append(c.b, v) }

// EmitBytes appends a slice of raw bytes verbatim.
func (c *CodeBuffer) EmitBytes(p []byte) { c.b = append(c.b, p...) }

// EmitU16LE appends a 16-bit value, little-endian.
func (c *CodeBuffer) EmitU16LE(v uint16) {
	c.b = append(c.b, byte(v), byte(v>>8))
}

// EmitU32LE appends a 32-bit value, little-endian.
func (c *CodeBuffer) EmitU32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	c.b = append(c.b, tmp[:]...)
}

// EmitU64LE appends a 64-bit value, little-endian.
func (c *CodeBuffer) EmitU64LE(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	c.b = append(c.b, tmp[:]...)
}

// PatchU8At overwrites a single byte previously emitted at offset.
func (c *CodeBuffer) PatchU8At(offset int, v byte) {
	c.b[offset] = v
}

// PatchU32LEAt overwrites a 32-bit little-endian value previously emitted
// at offset.
func (c *CodeBuffer) PatchU32LEAt(offset int, v uint32) {
	binary.LittleEndian.PutUint32(c.b[offset:offset+4], v)
}

// PatchU64LEAt overwrites a 64-bit little-endian value previously emitted
// at offset.
func (c *CodeBuffer) PatchU64LEAt(offset int, v uint64) {
	binary.LittleEndian.PutUint64(c.b[offset:offset+8], v)
}

// reserveZeros appends n zero bytes, used by the ModRM/SIB emitter to lay
// down placeholder displacement fields pending fixup resolution, and
// returns the offset at which they were written.
func (c *CodeBuffer) reserveZeros(n int) int {
	off := len(c.b)
	for i := 0; i < n; i++ {
		c.b = append(c.b, 0)
	}
	return off
}
