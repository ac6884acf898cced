// Package checkpoint reads and writes the variables file of a legacy export.
//
// Layout: 4 magic bytes, a uint32 format version, a uint32 JSON header
// length, the JSON header (variable index), then the raw little-endian
// variable data. All integers are little-endian.
package checkpoint

import (
	"errors"

	"github.com/born-ml/bundleshim/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "CKPT"
	FormatVersion = 1
	MaxHeaderSize = 1 << 20 // Sanity bound on the JSON index
)

// Data type string constants used in the header.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrOutOfBounds        = errors.New("variable extends beyond data section")
)

// Header is the JSON index at the start of a checkpoint file.
type Header struct {
	FormatVersion int            `json:"format_version"`
	Variables     []VariableMeta `json:"variables"`
}

// VariableMeta describes one variable in the checkpoint.
type VariableMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`
}

// dtypeToString converts tensor.DataType to its header representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	default:
		return "unknown"
	}
}

// stringToDtype converts a header representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
