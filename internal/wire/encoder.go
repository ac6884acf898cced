package wire

import (
	"encoding/binary"
	"math"
)

// Encoder builds protobuf wire-format data.
//
// The zero value is ready to use. Nested messages are built with a child
// Encoder whose bytes are written as a length-delimited field.
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of encoded bytes so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteTag writes a field tag.
func (e *Encoder) WriteTag(fieldNum, wireType int) {
	e.WriteVarint(int64(fieldNum<<3 | wireType))
}

// WriteVarint writes a varint-encoded value.
func (e *Encoder) WriteVarint(v int64) {
	u := uint64(v) //nolint:gosec // G115: Negative values use the full 10-byte encoding.
	for u >= 0x80 {
		e.buf = append(e.buf, byte(u)|0x80)
		u >>= 7
	}
	e.buf = append(e.buf, byte(u))
}

// WriteVarintField writes a tag followed by a varint value.
func (e *Encoder) WriteVarintField(fieldNum int, v int64) {
	e.WriteTag(fieldNum, TypeVarint)
	e.WriteVarint(v)
}

// WriteBytesField writes a tag followed by a length-delimited byte slice.
// Embedded messages and packed repeated fields use this too.
func (e *Encoder) WriteBytesField(fieldNum int, data []byte) {
	e.WriteTag(fieldNum, TypeBytes)
	e.WriteVarint(int64(len(data)))
	e.buf = append(e.buf, data...)
}

// WriteStringField writes a tag followed by a length-delimited string.
func (e *Encoder) WriteStringField(fieldNum int, s string) {
	e.WriteTag(fieldNum, TypeBytes)
	e.WriteVarint(int64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteFloat32 writes a 32-bit little-endian float without a tag.
// Used for packed repeated float fields.
func (e *Encoder) WriteFloat32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	e.buf = append(e.buf, b[:]...)
}

// WriteFloat32Field writes a tag followed by a 32-bit float.
func (e *Encoder) WriteFloat32Field(fieldNum int, v float32) {
	e.WriteTag(fieldNum, Type32Bit)
	e.WriteFloat32(v)
}

// WriteFloat64 writes a 64-bit little-endian float without a tag.
// Used for packed repeated double fields.
func (e *Encoder) WriteFloat64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf = append(e.buf, b[:]...)
}
