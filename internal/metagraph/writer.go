package metagraph

import (
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/bundleshim/internal/wire"
)

// WriteFile marshals a MetaGraphDef and writes it to path.
func WriteFile(path string, mg *MetaGraphDef) error {
	if err := os.WriteFile(path, Marshal(mg), 0o600); err != nil {
		return fmt.Errorf("write meta graph: %w", err)
	}
	return nil
}

// Marshal encodes a MetaGraphDef into protobuf wire format. Map-backed
// fields are emitted in sorted key order so output is deterministic.
func Marshal(mg *MetaGraphDef) []byte {
	e := &wire.Encoder{}
	if mg.Graph != nil {
		e.WriteBytesField(2, marshalGraphDef(mg.Graph))
	}
	for _, key := range sortedKeys(mg.Collections) {
		entry := &wire.Encoder{}
		entry.WriteStringField(1, key)
		entry.WriteBytesField(2, marshalCollectionDef(mg.Collections[key]))
		e.WriteBytesField(4, entry.Bytes())
	}
	for _, key := range sortedKeys(mg.SignatureDefs) {
		entry := &wire.Encoder{}
		entry.WriteStringField(1, key)
		entry.WriteBytesField(2, marshalSignatureDef(mg.SignatureDefs[key]))
		e.WriteBytesField(5, entry.Bytes())
	}
	return e.Bytes()
}

func marshalGraphDef(g *GraphDef) []byte {
	e := &wire.Encoder{}
	for i := range g.Nodes {
		e.WriteBytesField(1, marshalNodeDef(&g.Nodes[i]))
	}
	if g.Version != 0 {
		e.WriteVarintField(3, g.Version)
	}
	return e.Bytes()
}

func marshalNodeDef(n *NodeDef) []byte {
	e := &wire.Encoder{}
	e.WriteStringField(1, n.Name)
	e.WriteStringField(2, n.Op)
	for _, in := range n.Inputs {
		e.WriteStringField(3, in)
	}
	if n.Device != "" {
		e.WriteStringField(4, n.Device)
	}
	attrNames := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		attr := n.Attrs[name]
		entry := &wire.Encoder{}
		entry.WriteStringField(1, name)
		entry.WriteBytesField(2, marshalAttrValue(&attr))
		e.WriteBytesField(5, entry.Bytes())
	}
	return e.Bytes()
}

func marshalAttrValue(a *AttrValue) []byte {
	e := &wire.Encoder{}
	switch {
	case a.Tensor != nil:
		e.WriteBytesField(8, marshalTensorProto(a.Tensor))
	case a.Type != DTInvalid:
		e.WriteVarintField(6, int64(a.Type))
	case a.S != nil:
		e.WriteBytesField(2, a.S)
	case a.B:
		e.WriteVarintField(5, 1)
	case a.F != 0:
		e.WriteFloat32Field(4, a.F)
	case a.I != 0:
		e.WriteVarintField(3, a.I)
	}
	return e.Bytes()
}

func marshalTensorProto(tp *TensorProto) []byte {
	e := &wire.Encoder{}
	if tp.DType != DTInvalid {
		e.WriteVarintField(1, int64(tp.DType))
	}
	e.WriteBytesField(2, marshalShape(tp.Dims))
	if len(tp.TensorContent) > 0 {
		e.WriteBytesField(4, tp.TensorContent)
	}
	if len(tp.FloatVal) > 0 {
		packed := &wire.Encoder{}
		for _, f := range tp.FloatVal {
			packed.WriteFloat32(f)
		}
		e.WriteBytesField(5, packed.Bytes())
	}
	if len(tp.DoubleVal) > 0 {
		packed := &wire.Encoder{}
		for _, f := range tp.DoubleVal {
			packed.WriteFloat64(f)
		}
		e.WriteBytesField(6, packed.Bytes())
	}
	if len(tp.IntVal) > 0 {
		packed := &wire.Encoder{}
		for _, v := range tp.IntVal {
			packed.WriteVarint(int64(v))
		}
		e.WriteBytesField(7, packed.Bytes())
	}
	return e.Bytes()
}

func marshalShape(dims []int64) []byte {
	e := &wire.Encoder{}
	for _, size := range dims {
		dim := &wire.Encoder{}
		dim.WriteVarintField(1, size)
		e.WriteBytesField(2, dim.Bytes())
	}
	return e.Bytes()
}

func marshalCollectionDef(c *CollectionDef) []byte {
	e := &wire.Encoder{}
	switch {
	case c.NodeList != nil:
		list := &wire.Encoder{}
		for _, v := range c.NodeList {
			list.WriteStringField(1, v)
		}
		e.WriteBytesField(1, list.Bytes())
	case c.BytesList != nil:
		list := &wire.Encoder{}
		for _, v := range c.BytesList {
			list.WriteBytesField(1, v)
		}
		e.WriteBytesField(2, list.Bytes())
	case c.AnyList != nil:
		list := &wire.Encoder{}
		for _, any := range c.AnyList {
			item := &wire.Encoder{}
			item.WriteStringField(1, any.TypeURL)
			item.WriteBytesField(2, any.Value)
			list.WriteBytesField(1, item.Bytes())
		}
		e.WriteBytesField(5, list.Bytes())
	}
	return e.Bytes()
}

func marshalSignatureDef(sd *SignatureDef) []byte {
	e := &wire.Encoder{}
	writeTensorInfoMap(e, 1, sd.Inputs)
	writeTensorInfoMap(e, 2, sd.Outputs)
	if sd.MethodName != "" {
		e.WriteStringField(3, sd.MethodName)
	}
	return e.Bytes()
}

func writeTensorInfoMap(e *wire.Encoder, fieldNum int, m map[string]TensorInfo) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		info := &wire.Encoder{}
		info.WriteStringField(1, m[key].Name)
		entry := &wire.Encoder{}
		entry.WriteStringField(1, key)
		entry.WriteBytesField(2, info.Bytes())
		e.WriteBytesField(fieldNum, entry.Bytes())
	}
}

func sortedKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
