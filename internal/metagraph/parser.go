package metagraph

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/bundleshim/internal/wire"
)

// ParseFile parses a MetaGraphDef from a file.
//
//nolint:gosec // G304: Path is provided by the caller, reading the export is the point.
func ParseFile(path string) (*MetaGraphDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read meta graph: %w", err)
	}
	return Parse(data)
}

// Parse parses a MetaGraphDef from protobuf wire-format bytes.
func Parse(data []byte) (*MetaGraphDef, error) {
	mg := &MetaGraphDef{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 2: // graph_def
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			mg.Graph, err = parseGraphDef(sub)
			if err != nil {
				return nil, fmt.Errorf("graph def: %w", err)
			}
		case 4: // collection_def map entry
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			key, coll, err := parseCollectionEntry(sub)
			if err != nil {
				return nil, fmt.Errorf("collection def: %w", err)
			}
			if mg.Collections == nil {
				mg.Collections = make(map[string]*CollectionDef)
			}
			mg.Collections[key] = coll
		case 5: // signature_def map entry
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			key, sd, err := parseSignatureDefEntry(sub)
			if err != nil {
				return nil, fmt.Errorf("signature def: %w", err)
			}
			if mg.SignatureDefs == nil {
				mg.SignatureDefs = make(map[string]*SignatureDef)
			}
			mg.SignatureDefs[key] = sd
		default:
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return mg, nil
}

func parseGraphDef(data []byte) (*GraphDef, error) {
	g := &GraphDef{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 1: // node
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, err
			}
			node, err := parseNodeDef(sub)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, node)
		case 3: // version
			g.Version, err = d.ReadVarint()
			if err != nil {
				return nil, err
			}
		default:
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func parseNodeDef(data []byte) (NodeDef, error) {
	node := NodeDef{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return NodeDef{}, err
		}

		switch fieldNum {
		case 1: // name
			node.Name, err = d.ReadString()
		case 2: // op
			node.Op, err = d.ReadString()
		case 3: // input
			var in string
			in, err = d.ReadString()
			if err == nil {
				node.Inputs = append(node.Inputs, in)
			}
		case 4: // device
			node.Device, err = d.ReadString()
		case 5: // attr map entry
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				var key string
				var attr AttrValue
				key, attr, err = parseAttrEntry(sub)
				if err == nil {
					if node.Attrs == nil {
						node.Attrs = make(map[string]AttrValue)
					}
					node.Attrs[key] = attr
				}
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return NodeDef{}, err
		}
	}
	return node, nil
}

func parseAttrEntry(data []byte) (string, AttrValue, error) {
	var key string
	var attr AttrValue
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", AttrValue{}, err
		}

		switch fieldNum {
		case 1: // key
			key, err = d.ReadString()
		case 2: // value
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				attr, err = parseAttrValue(sub)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", AttrValue{}, err
		}
	}
	return key, attr, nil
}

func parseAttrValue(data []byte) (AttrValue, error) {
	attr := AttrValue{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return AttrValue{}, err
		}

		switch fieldNum {
		case 2: // s
			attr.S, err = d.ReadBytes()
		case 3: // i
			attr.I, err = d.ReadVarint()
		case 4: // f
			attr.F, err = d.ReadFloat32()
		case 5: // b
			var v int64
			v, err = d.ReadVarint()
			attr.B = v != 0
		case 6: // type
			var v int64
			v, err = d.ReadVarint()
			attr.Type = DataType(v)
		case 8: // tensor
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				attr.Tensor, err = parseTensorProto(sub)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return AttrValue{}, err
		}
	}
	return attr, nil
}

func parseTensorProto(data []byte) (*TensorProto, error) {
	tp := &TensorProto{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch fieldNum {
		case 1: // dtype
			var v int64
			v, err = d.ReadVarint()
			tp.DType = DataType(v)
		case 2: // tensor_shape
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				tp.Dims, err = parseShape(sub)
			}
		case 4: // tensor_content
			tp.TensorContent, err = d.ReadBytes()
		case 5: // float_val (packed)
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				packed := wire.NewDecoder(sub)
				for packed.More() {
					var f float32
					f, err = packed.ReadFloat32()
					if err != nil {
						break
					}
					tp.FloatVal = append(tp.FloatVal, f)
				}
			}
		case 6: // double_val (packed)
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				packed := wire.NewDecoder(sub)
				for packed.More() {
					var f float64
					f, err = packed.ReadFloat64()
					if err != nil {
						break
					}
					tp.DoubleVal = append(tp.DoubleVal, f)
				}
			}
		case 7: // int_val (packed)
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				packed := wire.NewDecoder(sub)
				for packed.More() {
					var v int64
					v, err = packed.ReadVarint()
					if err != nil {
						break
					}
					tp.IntVal = append(tp.IntVal, int32(v))
				}
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return nil, err
		}
	}
	return tp, nil
}

// parseShape decodes a tensor shape message (dim=2, each dim has size=1).
func parseShape(data []byte) ([]int64, error) {
	var dims []int64
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		if fieldNum != 2 {
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
			continue
		}

		sub, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		dim := wire.NewDecoder(sub)
		var size int64
		for dim.More() {
			f, wt, err := dim.ReadTag()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, err
			}
			if f == 1 {
				size, err = dim.ReadVarint()
			} else {
				err = dim.Skip(wt)
			}
			if err != nil {
				return nil, err
			}
		}
		dims = append(dims, size)
	}
	return dims, nil
}

func parseCollectionEntry(data []byte) (string, *CollectionDef, error) {
	var key string
	coll := &CollectionDef{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", nil, err
		}

		switch fieldNum {
		case 1: // key
			key, err = d.ReadString()
		case 2: // value
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				err = parseCollectionDef(sub, coll)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", nil, err
		}
	}
	return key, coll, nil
}

// parseCollectionDef decodes a CollectionDef oneof: node_list=1,
// bytes_list=2, any_list=5. Int64 and float lists are not consumed by the
// shim and are skipped.
func parseCollectionDef(data []byte, coll *CollectionDef) error {
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // node_list
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				coll.NodeList, err = parseStringList(sub)
			}
		case 2: // bytes_list
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				coll.BytesList, err = parseBytesList(sub)
			}
		case 5: // any_list
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				coll.AnyList, err = parseAnyList(sub)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseStringList(data []byte) ([]string, error) {
	var values []string
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if fieldNum != 1 {
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseBytesList(data []byte) ([][]byte, error) {
	var values [][]byte
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if fieldNum != 1 {
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseAnyList(data []byte) ([]Any, error) {
	var values []Any
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if fieldNum != 1 {
			if err := d.Skip(wireType); err != nil {
				return nil, err
			}
			continue
		}
		sub, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		any, err := parseAny(sub)
		if err != nil {
			return nil, err
		}
		values = append(values, any)
	}
	return values, nil
}

func parseAny(data []byte) (Any, error) {
	any := Any{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Any{}, err
		}

		switch fieldNum {
		case 1: // type_url
			any.TypeURL, err = d.ReadString()
		case 2: // value
			any.Value, err = d.ReadBytes()
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return Any{}, err
		}
	}
	return any, nil
}

func parseSignatureDefEntry(data []byte) (string, *SignatureDef, error) {
	var key string
	sd := &SignatureDef{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", nil, err
		}

		switch fieldNum {
		case 1: // key
			key, err = d.ReadString()
		case 2: // value
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				err = parseSignatureDef(sub, sd)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", nil, err
		}
	}
	return key, sd, nil
}

func parseSignatureDef(data []byte, sd *SignatureDef) error {
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // inputs map entry
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				var key string
				var info TensorInfo
				key, info, err = parseTensorInfoEntry(sub)
				if err == nil {
					if sd.Inputs == nil {
						sd.Inputs = make(map[string]TensorInfo)
					}
					sd.Inputs[key] = info
				}
			}
		case 2: // outputs map entry
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				var key string
				var info TensorInfo
				key, info, err = parseTensorInfoEntry(sub)
				if err == nil {
					if sd.Outputs == nil {
						sd.Outputs = make(map[string]TensorInfo)
					}
					sd.Outputs[key] = info
				}
			}
		case 3: // method_name
			sd.MethodName, err = d.ReadString()
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseTensorInfoEntry(data []byte) (string, TensorInfo, error) {
	var key string
	var info TensorInfo
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", TensorInfo{}, err
		}

		switch fieldNum {
		case 1: // key
			key, err = d.ReadString()
		case 2: // value (TensorInfo, name=1)
			var sub []byte
			sub, err = d.ReadBytes()
			if err == nil {
				info, err = parseTensorInfo(sub)
			}
		default:
			err = d.Skip(wireType)
		}
		if err != nil {
			return "", TensorInfo{}, err
		}
	}
	return key, info, nil
}

func parseTensorInfo(data []byte) (TensorInfo, error) {
	info := TensorInfo{}
	d := wire.NewDecoder(data)
	for d.More() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return TensorInfo{}, err
		}

		if fieldNum == 1 {
			info.Name, err = d.ReadString()
		} else {
			err = d.Skip(wireType)
		}
		if err != nil {
			return TensorInfo{}, err
		}
	}
	return info, nil
}
