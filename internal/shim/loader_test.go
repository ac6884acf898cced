package shim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/born-ml/bundleshim/internal/checkpoint"
	"github.com/born-ml/bundleshim/internal/manifest"
	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// halfPlusTwoMetaGraph builds the y = a*x + b graph with a and b left as
// variables for checkpoint restoration, plus the given legacy signatures.
func halfPlusTwoMetaGraph(sigs manifest.Signatures) *metagraph.MetaGraphDef {
	return &metagraph.MetaGraphDef{
		Graph: &metagraph.GraphDef{
			Nodes: []metagraph.NodeDef{
				{Name: "x", Op: "Placeholder"},
				{Name: "a", Op: "VariableV2"},
				{Name: "b", Op: "VariableV2"},
				{Name: "ax", Op: "Mul", Inputs: []string{"a:0", "x:0"}},
				{Name: "y", Op: "Add", Inputs: []string{"ax:0", "b:0"}},
				{Name: "init", Op: "NoOp", Inputs: []string{"^a", "^b"}},
			},
		},
		Collections: map[string]*metagraph.CollectionDef{
			InitOpKey: {NodeList: []string{"init"}},
			SignaturesKey: {AnyList: []metagraph.Any{
				{TypeURL: SignaturesTypeURL, Value: manifest.Marshal(sigs)},
			}},
		},
	}
}

// writeHalfPlusTwoExport writes a complete legacy export directory with
// a=0.5 and b=2 in a single variable shard.
func writeHalfPlusTwoExport(t *testing.T, dir string, sigs manifest.Signatures) {
	t.Helper()
	mg := halfPlusTwoMetaGraph(sigs)
	require.NoError(t, metagraph.WriteFile(filepath.Join(dir, MetaGraphDefFilename), mg))
	vars := map[string]*tensor.RawTensor{
		"a": tensor.Scalar(0.5),
		"b": tensor.Scalar(2),
	}
	require.NoError(t, checkpoint.Write(filepath.Join(dir, "export-00000-of-00001"), vars))
}

func regressionSigs() manifest.Signatures {
	return manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input:  manifest.TensorBinding{TensorName: "x:0"},
			Output: manifest.TensorBinding{TensorName: "y:0"},
		},
	}
}

func TestLoadHalfPlusTwo(t *testing.T) {
	dir := t.TempDir()
	writeHalfPlusTwoExport(t, dir, regressionSigs())

	opts := DefaultLoadOptions()
	opts.Logger = zaptest.NewLogger(t)
	bundle, err := LoadSavedModelFromLegacyPath(opts, dir)
	require.NoError(t, err)

	sd := bundle.MetaGraph.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, RegressMethodName, sd.MethodName)

	input, err := tensor.FromFloat32([]float32{0, 1, 2, 3}, tensor.Shape{4, 1})
	require.NoError(t, err)
	outputs, err := bundle.Session.Run(
		map[string]*tensor.RawTensor{sd.Inputs[SignatureInputs].Name: input},
		[]string{sd.Outputs[SignatureOutputs].Name},
	)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	got := outputs[0].AsFloat32()
	want := []float32{2, 2.5, 3, 3.5}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestLoadNamedSignatures(t *testing.T) {
	dir := t.TempDir()
	sigs := manifest.Signatures{
		Named: map[string]manifest.Signature{
			SignatureInputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
			},
			SignatureOutputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"y": {TensorName: "y:0"}},
			},
		},
	}
	writeHalfPlusTwoExport(t, dir, sigs)

	bundle, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), dir)
	require.NoError(t, err)

	sd := bundle.MetaGraph.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, PredictMethodName, sd.MethodName)
	assert.Equal(t, "x:0", sd.Inputs["x"].Name)
	assert.Equal(t, "y:0", sd.Outputs["y"].Name)
}

func TestLoadUnconvertibleSignatures(t *testing.T) {
	dir := t.TempDir()
	sigs := manifest.Signatures{
		Default: &manifest.GenericSignature{
			Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
		},
	}
	writeHalfPlusTwoExport(t, dir, sigs)

	bundle, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), dir)
	require.NoError(t, err)
	assert.NotContains(t, bundle.MetaGraph.SignatureDefs, DefaultSignatureDefKey)
}

func TestLoadMissingExportDir(t *testing.T) {
	_, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMissingVariableShards(t *testing.T) {
	dir := t.TempDir()
	mg := halfPlusTwoMetaGraph(regressionSigs())
	require.NoError(t, metagraph.WriteFile(filepath.Join(dir, MetaGraphDefFilename), mg))

	_, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadConstGraphWithoutShards(t *testing.T) {
	dir := t.TempDir()
	mg := &metagraph.MetaGraphDef{
		Graph: &metagraph.GraphDef{
			Nodes: []metagraph.NodeDef{
				{Name: "c", Op: "Const", Attrs: map[string]metagraph.AttrValue{
					"value": {Tensor: &metagraph.TensorProto{
						DType:    metagraph.DTFloat,
						FloatVal: []float32{7},
					}},
				}},
			},
		},
	}
	require.NoError(t, metagraph.WriteFile(filepath.Join(dir, MetaGraphDefFilename), mg))

	bundle, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), dir)
	require.NoError(t, err)

	outputs, err := bundle.Session.Run(nil, []string{"c:0"})
	require.NoError(t, err)
	assert.InDelta(t, 7, outputs[0].AsFloat32()[0], 1e-6)
}

func TestLoadInitOpNamesMissingNode(t *testing.T) {
	dir := t.TempDir()
	mg := &metagraph.MetaGraphDef{
		Graph: &metagraph.GraphDef{
			Nodes: []metagraph.NodeDef{{Name: "c", Op: "NoOp"}},
		},
		Collections: map[string]*metagraph.CollectionDef{
			InitOpKey: {NodeList: []string{"missing"}},
		},
	}
	require.NoError(t, metagraph.WriteFile(filepath.Join(dir, MetaGraphDefFilename), mg))

	_, err := LoadSavedModelFromLegacyPath(DefaultLoadOptions(), dir)
	assert.ErrorContains(t, err, "init op")
}

func TestLoadSkipsInitOpWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	mg := &metagraph.MetaGraphDef{
		Graph: &metagraph.GraphDef{
			Nodes: []metagraph.NodeDef{{Name: "c", Op: "NoOp"}},
		},
		Collections: map[string]*metagraph.CollectionDef{
			InitOpKey: {NodeList: []string{"missing"}},
		},
	}
	require.NoError(t, metagraph.WriteFile(filepath.Join(dir, MetaGraphDefFilename), mg))

	_, err := LoadSavedModelFromLegacyPath(LoadOptions{}, dir)
	require.NoError(t, err)
}
