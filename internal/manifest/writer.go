package manifest

import (
	"sort"

	"github.com/born-ml/bundleshim/internal/wire"
)

// Marshal encodes a Signatures record into protobuf wire format. Named
// signatures are emitted in sorted key order so output is deterministic.
func Marshal(sigs Signatures) []byte {
	e := &wire.Encoder{}
	if sigs.Default != nil {
		e.WriteBytesField(1, marshalSignature(sigs.Default))
	}

	names := make([]string, 0, len(sigs.Named))
	for name := range sigs.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := &wire.Encoder{}
		entry.WriteStringField(1, name)
		entry.WriteBytesField(2, marshalSignature(sigs.Named[name]))
		e.WriteBytesField(2, entry.Bytes())
	}
	return e.Bytes()
}

func marshalSignature(sig Signature) []byte {
	e := &wire.Encoder{}
	switch s := sig.(type) {
	case *RegressionSignature:
		sub := &wire.Encoder{}
		sub.WriteBytesField(1, marshalBinding(s.Input))
		sub.WriteBytesField(2, marshalBinding(s.Output))
		e.WriteBytesField(1, sub.Bytes())
	case *ClassificationSignature:
		sub := &wire.Encoder{}
		sub.WriteBytesField(1, marshalBinding(s.Input))
		sub.WriteBytesField(2, marshalBinding(s.Classes))
		sub.WriteBytesField(3, marshalBinding(s.Scores))
		e.WriteBytesField(2, sub.Bytes())
	case *GenericSignature:
		sub := &wire.Encoder{}
		keys := make([]string, 0, len(s.Map))
		for key := range s.Map {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			entry := &wire.Encoder{}
			entry.WriteStringField(1, key)
			entry.WriteBytesField(2, marshalBinding(s.Map[key]))
			sub.WriteBytesField(1, entry.Bytes())
		}
		e.WriteBytesField(3, sub.Bytes())
	}
	return e.Bytes()
}

func marshalBinding(b TensorBinding) []byte {
	e := &wire.Encoder{}
	if b.TensorName != "" {
		e.WriteStringField(1, b.TensorName)
	}
	return e.Bytes()
}
