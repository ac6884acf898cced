package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/bundleshim/internal/tensor"
)

// Write saves variables to a checkpoint file at path. Variables are laid
// out in sorted name order so output is deterministic.
func Write(path string, vars map[string]*tensor.RawTensor) error {
	data, err := Marshal(vars)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Marshal encodes variables into the checkpoint format.
func Marshal(vars map[string]*tensor.RawTensor) ([]byte, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{FormatVersion: FormatVersion}
	var offset int64
	for _, name := range names {
		raw := vars[name]
		size := int64(len(raw.Data()))
		header.Variables = append(header.Variables, VariableMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  raw.Shape(),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	buf := make([]byte, 0, 12+len(headerJSON)+int(offset))
	buf = append(buf, MagicBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, FormatVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(headerJSON))) //nolint:gosec // G115: bounded by MaxHeaderSize
	buf = append(buf, headerJSON...)
	for _, name := range names {
		buf = append(buf, vars[name].Data()...)
	}
	return buf, nil
}
