package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/bundleshim/internal/tensor"
)

// Read loads every variable from a checkpoint file.
//
//nolint:gosec // G304: Path is provided by the caller, reading the checkpoint is the point.
func Read(path string) (map[string]*tensor.RawTensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return Parse(data)
}

// Parse decodes a checkpoint from bytes.
func Parse(data []byte) (map[string]*tensor.RawTensor, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("checkpoint too short: %d bytes", len(data))
	}
	if string(data[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerLen := binary.LittleEndian.Uint32(data[8:12])
	if headerLen > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerLen)
	}
	if int(12+headerLen) > len(data) {
		return nil, fmt.Errorf("truncated header: want %d bytes, have %d", headerLen, len(data)-12)
	}

	header := Header{}
	if err := json.Unmarshal(data[12:12+headerLen], &header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	section := data[12+headerLen:]
	vars := make(map[string]*tensor.RawTensor, len(header.Variables))
	for _, meta := range header.Variables {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, fmt.Errorf("variable %q: unknown dtype %q", meta.Name, meta.DType)
		}
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(section)) {
			return nil, fmt.Errorf("variable %q: %w", meta.Name, ErrOutOfBounds)
		}

		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", meta.Name, err)
		}
		if int64(len(raw.Data())) != meta.Size {
			return nil, fmt.Errorf("variable %q: size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
		}
		copy(raw.Data(), section[meta.Offset:meta.Offset+meta.Size])
		vars[meta.Name] = raw
	}
	return vars, nil
}
