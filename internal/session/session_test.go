package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// halfPlusTwoGraph builds y = a*x + b with a and b as variables.
func halfPlusTwoGraph() *metagraph.GraphDef {
	return &metagraph.GraphDef{Nodes: []metagraph.NodeDef{
		{Name: "x", Op: "Placeholder", Attrs: map[string]metagraph.AttrValue{"dtype": {Type: metagraph.DTFloat}}},
		{Name: "a", Op: "VariableV2", Attrs: map[string]metagraph.AttrValue{"dtype": {Type: metagraph.DTFloat}}},
		{Name: "b", Op: "VariableV2", Attrs: map[string]metagraph.AttrValue{"dtype": {Type: metagraph.DTFloat}}},
		{Name: "ax", Op: "Mul", Inputs: []string{"a", "x:0"}},
		{Name: "y", Op: "Add", Inputs: []string{"ax:0", "b"}},
		{Name: "init", Op: "NoOp", Inputs: []string{"^a", "^b"}},
	}}
}

func restoredSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(halfPlusTwoGraph())
	require.NoError(t, err)
	require.NoError(t, s.Restore(map[string]*tensor.RawTensor{
		"a": tensor.Scalar(0.5),
		"b": tensor.Scalar(2.0),
	}))
	return s
}

// TestRunHalfPlusTwo tests the full feed→fetch path over variables.
func TestRunHalfPlusTwo(t *testing.T) {
	s := restoredSession(t)

	input, err := tensor.FromFloat32([]float32{0, 1, 2, 3}, tensor.Shape{4, 1})
	require.NoError(t, err)

	outputs, err := s.Run(map[string]*tensor.RawTensor{"x:0": input}, []string{"y:0"})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, []float32{2, 2.5, 3, 3.5}, outputs[0].AsFloat32())
	assert.True(t, outputs[0].Shape().Equal(tensor.Shape{4, 1}))
}

// TestRunConstGraph tests Const materialization and elementwise ops.
func TestRunConstGraph(t *testing.T) {
	g := &metagraph.GraphDef{Nodes: []metagraph.NodeDef{
		{Name: "c1", Op: "Const", Attrs: map[string]metagraph.AttrValue{
			"value": {Tensor: &metagraph.TensorProto{DType: metagraph.DTFloat, Dims: []int64{3}, FloatVal: []float32{1, 2, 3}}},
		}},
		{Name: "c2", Op: "Const", Attrs: map[string]metagraph.AttrValue{
			"value": {Tensor: &metagraph.TensorProto{DType: metagraph.DTFloat, FloatVal: []float32{10}}},
		}},
		{Name: "sum", Op: "Add", Inputs: []string{"c1", "c2"}},
		{Name: "diff", Op: "Sub", Inputs: []string{"sum", "c1"}},
	}}
	s, err := New(g)
	require.NoError(t, err)

	outputs, err := s.Run(nil, []string{"sum", "diff"})
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 12, 13}, outputs[0].AsFloat32())
	assert.Equal(t, []float32{10, 10, 10}, outputs[1].AsFloat32())
}

// TestRunMatMul tests 2D matrix multiplication.
func TestRunMatMul(t *testing.T) {
	g := &metagraph.GraphDef{Nodes: []metagraph.NodeDef{
		{Name: "x", Op: "Placeholder"},
		{Name: "w", Op: "Const", Attrs: map[string]metagraph.AttrValue{
			"value": {Tensor: &metagraph.TensorProto{
				DType:         metagraph.DTFloat,
				Dims:          []int64{2, 2},
				TensorContent: Float32Bytes([]float32{1, 2, 3, 4}),
			}},
		}},
		{Name: "y", Op: "MatMul", Inputs: []string{"x", "w"}},
	}}
	s, err := New(g)
	require.NoError(t, err)

	input, err := tensor.FromFloat32([]float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	require.NoError(t, err)

	outputs, err := s.Run(map[string]*tensor.RawTensor{"x": input}, []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, outputs[0].AsFloat32())
}

// TestRunUnfedPlaceholder tests that fetching through an unfed placeholder fails.
func TestRunUnfedPlaceholder(t *testing.T) {
	s := restoredSession(t)

	_, err := s.Run(nil, []string{"y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

// TestRestoreMissingVariable tests that restore requires every variable.
func TestRestoreMissingVariable(t *testing.T) {
	s, err := New(halfPlusTwoGraph())
	require.NoError(t, err)

	err = s.Restore(map[string]*tensor.RawTensor{"a": tensor.Scalar(0.5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
}

// TestRestoreIgnoresExtraValues tests that unknown checkpoint entries are skipped.
func TestRestoreIgnoresExtraValues(t *testing.T) {
	s, err := New(halfPlusTwoGraph())
	require.NoError(t, err)

	err = s.Restore(map[string]*tensor.RawTensor{
		"a":                  tensor.Scalar(0.5),
		"b":                  tensor.Scalar(2.0),
		"optimizer/momentum": tensor.Scalar(0.9),
	})
	assert.NoError(t, err)
}

// TestRunTarget tests init-op style evaluation with control dependencies.
func TestRunTarget(t *testing.T) {
	s := restoredSession(t)
	assert.NoError(t, s.RunTarget("init"))
}

// TestHasVariables tests variable detection.
func TestHasVariables(t *testing.T) {
	s, err := New(halfPlusTwoGraph())
	require.NoError(t, err)
	assert.True(t, s.HasVariables())

	s2, err := New(&metagraph.GraphDef{Nodes: []metagraph.NodeDef{{Name: "x", Op: "Placeholder"}}})
	require.NoError(t, err)
	assert.False(t, s2.HasVariables())
}

// TestFetchHigherOutputIndex tests rejection of multi-output endpoints.
func TestFetchHigherOutputIndex(t *testing.T) {
	s := restoredSession(t)
	_, err := s.Run(nil, []string{"y:1"})
	assert.Error(t, err)
}

// TestDuplicateNodeNames tests graph validation.
func TestDuplicateNodeNames(t *testing.T) {
	g := &metagraph.GraphDef{Nodes: []metagraph.NodeDef{
		{Name: "x", Op: "Placeholder"},
		{Name: "x", Op: "NoOp"},
	}}
	_, err := New(g)
	assert.Error(t, err)
}

// TestGraphCycle tests cycle detection.
func TestGraphCycle(t *testing.T) {
	g := &metagraph.GraphDef{Nodes: []metagraph.NodeDef{
		{Name: "p", Op: "Identity", Inputs: []string{"q"}},
		{Name: "q", Op: "Identity", Inputs: []string{"p"}},
	}}
	s, err := New(g)
	require.NoError(t, err)

	_, err = s.Run(nil, []string{"p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
