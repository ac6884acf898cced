// Package metagraph models the export metadata consumed by the serving
// runtime: the computation graph, the generic key→value collections attached
// to it, and the strongly-keyed signature definitions. Structs are
// hand-declared against the wire schema; field numbers live in the parser
// and writer.
package metagraph

// MetaGraphDef is the root export metadata record.
type MetaGraphDef struct {
	Graph         *GraphDef                 // Computation graph
	Collections   map[string]*CollectionDef // Generic named side collections
	SignatureDefs map[string]*SignatureDef  // Strongly-keyed servable signatures
}

// GraphDef is the computation graph.
type GraphDef struct {
	Nodes   []NodeDef // Operation nodes
	Version int64     // Graph version
}

// NodeDef is a single graph operation.
type NodeDef struct {
	Name   string               // Unique node name
	Op     string               // Operation type (e.g. "Const", "MatMul")
	Inputs []string             // Input tensor names; "^name" marks a control dependency
	Device string               // Placement hint, unused by the executor
	Attrs  map[string]AttrValue // Operation attributes
}

// AttrValue is a node attribute. At most one field is meaningful, matching
// the schema oneof; only the variants the executor needs are modeled.
type AttrValue struct {
	S      []byte       // Bytes value
	I      int64        // Int value
	F      float32      // Float value
	B      bool         // Bool value
	Type   DataType     // Dtype value
	Tensor *TensorProto // Tensor value (Const nodes)
}

// TensorProto is a serialized tensor value.
type TensorProto struct {
	DType         DataType  // Element type
	Dims          []int64   // Shape; empty means scalar
	TensorContent []byte    // Raw little-endian data (preferred)
	FloatVal      []float32 // Float data (legacy field)
	DoubleVal     []float64 // Double data (legacy field)
	IntVal        []int32   // Int data (legacy field)
}

// CollectionDef is one generic side collection. At most one list is set.
type CollectionDef struct {
	NodeList  []string // Graph node names
	BytesList [][]byte // Opaque serialized values
	AnyList   []Any    // Packed typed values
}

// Any is a packed value tagged with the type URL of its payload.
type Any struct {
	TypeURL string
	Value   []byte
}

// SignatureDef describes one servable computation: named input and output
// tensors plus the serving method that interprets them.
type SignatureDef struct {
	Inputs     map[string]TensorInfo
	Outputs    map[string]TensorInfo
	MethodName string
}

// TensorInfo names a tensor endpoint of a signature.
type TensorInfo struct {
	Name string
}

// DataType identifies a tensor element type on the wire.
type DataType int32

// Wire values for the element types the executor understands.
const (
	DTInvalid DataType = 0
	DTFloat   DataType = 1
	DTDouble  DataType = 2
	DTInt32   DataType = 3
	DTInt64   DataType = 9
)
