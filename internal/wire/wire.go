// Package wire implements the minimal protobuf wire-format encoding used by
// legacy model exports. Only the subset needed to read and write export
// metadata is supported: varints, length-delimited fields, and the fixed-width
// scalar types.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Protobuf wire types.
const (
	TypeVarint = 0 // int32, int64, uint32, uint64, bool, enum
	Type64Bit  = 1 // fixed64, sfixed64, double
	TypeBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	Type32Bit  = 5 // fixed32, sfixed32, float
)

// Decoder reads protobuf wire-format data from a byte slice.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// More reports whether any unread bytes remain.
func (d *Decoder) More() bool {
	return d.pos < len(d.data)
}

// ReadTag reads a field tag and splits it into field number and wire type.
func (d *Decoder) ReadTag() (fieldNum, wireType int, err error) {
	if d.pos >= len(d.data) {
		return 0, 0, io.EOF
	}
	tag, err := d.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

// ReadVarint reads a varint-encoded int64.
func (d *Decoder) ReadVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if d.pos >= len(d.data) {
			return 0, io.EOF
		}
		b := d.data[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: Protobuf varint fits in int64.
}

// ReadBytes reads a length-delimited byte slice. The returned slice aliases
// the decoder's underlying buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	length, err := d.ReadVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := d.pos + int(length)
	if end > len(d.data) || end < d.pos {
		return nil, io.ErrUnexpectedEOF
	}
	result := d.data[d.pos:end]
	d.pos = end
	return result, nil
}

// ReadString reads a length-delimited string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFloat32 reads a 32-bit little-endian float.
func (d *Decoder) ReadFloat32() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

// ReadFloat64 reads a 64-bit little-endian float.
func (d *Decoder) ReadFloat64() (float64, error) {
	if d.pos+8 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint64(d.data[d.pos:])
	d.pos += 8
	return math.Float64frombits(bits), nil
}

// Skip discards a field value based on its wire type.
func (d *Decoder) Skip(wireType int) error {
	switch wireType {
	case TypeVarint:
		_, err := d.ReadVarint()
		return err
	case Type64Bit:
		if d.pos+8 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case TypeBytes:
		_, err := d.ReadBytes()
		return err
	case Type32Bit:
		if d.pos+4 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
