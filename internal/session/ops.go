package session

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/parallel"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// apply executes a single node given its already-evaluated inputs.
func (s *Session) apply(node *metagraph.NodeDef, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	switch node.Op {
	case "Placeholder":
		return nil, fmt.Errorf("placeholder was not fed")
	case "Const":
		attr, ok := node.Attrs["value"]
		if !ok || attr.Tensor == nil {
			return nil, fmt.Errorf("const has no value attr")
		}
		return tensorFromProto(attr.Tensor)
	case "Variable", "VariableV2":
		value, ok := s.vars[node.Name]
		if !ok {
			return nil, fmt.Errorf("variable has no restored value")
		}
		return value, nil
	case "Identity":
		if len(inputs) < 1 {
			return nil, fmt.Errorf("identity needs 1 input, got %d", len(inputs))
		}
		return inputs[0], nil
	case "NoOp":
		return nil, nil
	case "Add", "AddV2":
		return binaryOp(inputs, func(a, b float32) float32 { return a + b })
	case "Sub":
		return binaryOp(inputs, func(a, b float32) float32 { return a - b })
	case "Mul":
		return binaryOp(inputs, func(a, b float32) float32 { return a * b })
	case "MatMul":
		return matMul(inputs)
	default:
		return nil, fmt.Errorf("unsupported op")
	}
}

// binaryOp applies an elementwise float32 operation with scalar broadcasting
// on either side.
func binaryOp(inputs []*tensor.RawTensor, op func(a, b float32) float32) (*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("binary op needs 2 inputs, got %d", len(inputs))
	}
	a, b := inputs[0], inputs[1]
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		return nil, fmt.Errorf("binary op supports float32 only, got %s and %s", a.DType(), b.DType())
	}

	av, bv := a.AsFloat32(), b.AsFloat32()
	switch {
	case a.Shape().Equal(b.Shape()):
		out, err := tensor.NewRaw(a.Shape(), tensor.Float32)
		if err != nil {
			return nil, err
		}
		ov := out.AsFloat32()
		for i := range av {
			ov[i] = op(av[i], bv[i])
		}
		return out, nil
	case a.Shape().IsScalar():
		out, err := tensor.NewRaw(b.Shape(), tensor.Float32)
		if err != nil {
			return nil, err
		}
		ov := out.AsFloat32()
		for i := range bv {
			ov[i] = op(av[0], bv[i])
		}
		return out, nil
	case b.Shape().IsScalar():
		out, err := tensor.NewRaw(a.Shape(), tensor.Float32)
		if err != nil {
			return nil, err
		}
		ov := out.AsFloat32()
		for i := range av {
			ov[i] = op(av[i], bv[0])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("incompatible shapes %v and %v", a.Shape(), b.Shape())
	}
}

// matMul multiplies two 2D float32 tensors.
func matMul(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("matmul needs 2 inputs, got %d", len(inputs))
	}
	a, b := inputs[0], inputs[1]
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		return nil, fmt.Errorf("matmul supports float32 only")
	}
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 || as[1] != bs[0] {
		return nil, fmt.Errorf("incompatible matmul shapes %v and %v", as, bs)
	}

	m, k, n := as[0], as[1], bs[1]
	out, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32)
	if err != nil {
		return nil, err
	}
	av, bv, ov := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = 8 // rows, not elements
	parallel.For(m, func(i int) {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += av[i*k+l] * bv[l*n+j]
			}
			ov[i*n+j] = sum
		}
	}, cfg)
	return out, nil
}

// tensorFromProto materializes a serialized tensor value. A single legacy
// scalar in the value list is splatted across the full shape.
func tensorFromProto(tp *metagraph.TensorProto) (*tensor.RawTensor, error) {
	dtype, err := dtypeFromProto(tp.DType)
	if err != nil {
		return nil, err
	}
	shape := make(tensor.Shape, len(tp.Dims))
	for i, dim := range tp.Dims {
		shape[i] = int(dim)
	}

	raw, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}

	switch {
	case len(tp.TensorContent) > 0:
		if len(tp.TensorContent) != len(raw.Data()) {
			return nil, fmt.Errorf("tensor content is %d bytes, shape %v needs %d",
				len(tp.TensorContent), shape, len(raw.Data()))
		}
		copy(raw.Data(), tp.TensorContent)
	case len(tp.FloatVal) > 0:
		if dtype != tensor.Float32 {
			return nil, fmt.Errorf("float_val on %s tensor", dtype)
		}
		dst := raw.AsFloat32()
		if len(tp.FloatVal) == 1 {
			for i := range dst {
				dst[i] = tp.FloatVal[0]
			}
		} else if len(tp.FloatVal) == len(dst) {
			copy(dst, tp.FloatVal)
		} else {
			return nil, fmt.Errorf("%d float values for shape %v", len(tp.FloatVal), shape)
		}
	case len(tp.DoubleVal) > 0:
		if dtype != tensor.Float64 {
			return nil, fmt.Errorf("double_val on %s tensor", dtype)
		}
		dst := raw.AsFloat64()
		if len(tp.DoubleVal) == 1 {
			for i := range dst {
				dst[i] = tp.DoubleVal[0]
			}
		} else if len(tp.DoubleVal) == len(dst) {
			copy(dst, tp.DoubleVal)
		} else {
			return nil, fmt.Errorf("%d double values for shape %v", len(tp.DoubleVal), shape)
		}
	case len(tp.IntVal) > 0:
		if dtype != tensor.Int32 {
			return nil, fmt.Errorf("int_val on %s tensor", dtype)
		}
		dst := raw.AsInt32()
		if len(tp.IntVal) == 1 {
			for i := range dst {
				dst[i] = tp.IntVal[0]
			}
		} else if len(tp.IntVal) == len(dst) {
			copy(dst, tp.IntVal)
		} else {
			return nil, fmt.Errorf("%d int values for shape %v", len(tp.IntVal), shape)
		}
	}
	return raw, nil
}

func dtypeFromProto(dt metagraph.DataType) (tensor.DataType, error) {
	switch dt {
	case metagraph.DTFloat:
		return tensor.Float32, nil
	case metagraph.DTDouble:
		return tensor.Float64, nil
	case metagraph.DTInt32:
		return tensor.Int32, nil
	case metagraph.DTInt64:
		return tensor.Int64, nil
	default:
		return 0, fmt.Errorf("unsupported tensor dtype %d", dt)
	}
}

// Float32Bytes encodes values as little-endian bytes, the layout of
// TensorProto.TensorContent. Exported for export-building tools and tests.
func Float32Bytes(values []float32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
