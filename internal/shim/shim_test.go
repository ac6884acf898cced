package shim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bundleshim/internal/manifest"
	"github.com/born-ml/bundleshim/internal/metagraph"
)

func TestAddInputOutputToSignatureDef(t *testing.T) {
	sd := &metagraph.SignatureDef{}
	AddInputToSignatureDef("x:0", "x", sd)
	AddOutputToSignatureDef("y:0", "y", sd)

	assert.Equal(t, "x:0", sd.Inputs["x"].Name)
	assert.Equal(t, "y:0", sd.Outputs["y"].Name)

	// Re-adding under the same key overwrites.
	AddInputToSignatureDef("x2:0", "x", sd)
	assert.Equal(t, "x2:0", sd.Inputs["x"].Name)
	assert.Len(t, sd.Inputs, 1)
}

func TestConvertDefaultRegression(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input:  manifest.TensorBinding{TensorName: "in:0"},
			Output: manifest.TensorBinding{TensorName: "out:0"},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, RegressMethodName, sd.MethodName)
	assert.Equal(t, "in:0", sd.Inputs[SignatureInputs].Name)
	assert.Equal(t, "out:0", sd.Outputs[SignatureOutputs].Name)
}

func TestConvertDefaultClassification(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.ClassificationSignature{
			Input:   manifest.TensorBinding{TensorName: "in:0"},
			Classes: manifest.TensorBinding{TensorName: "classes:0"},
			Scores:  manifest.TensorBinding{TensorName: "scores:0"},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, ClassifyMethodName, sd.MethodName)
	assert.Equal(t, "in:0", sd.Inputs[SignatureInputs].Name)
	assert.Equal(t, "classes:0", sd.Outputs[ClassifyOutputClasses].Name)
	assert.Equal(t, "scores:0", sd.Outputs[ClassifyOutputScores].Name)
}

func TestConvertDefaultClassificationScoresOnly(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.ClassificationSignature{
			Input:  manifest.TensorBinding{TensorName: "in:0"},
			Scores: manifest.TensorBinding{TensorName: "scores:0"},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.NotContains(t, sd.Outputs, ClassifyOutputClasses)
	assert.Equal(t, "scores:0", sd.Outputs[ClassifyOutputScores].Name)
}

func TestConvertDefaultGenericIsSkipped(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.GenericSignature{
			Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(sigs, mg)
	assert.NotContains(t, mg.SignatureDefs, DefaultSignatureDefKey)
}

func TestConvertDefaultAbsent(t *testing.T) {
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(manifest.Signatures{}, mg)
	assert.Empty(t, mg.SignatureDefs)
}

func TestConvertDefaultIncompleteNotInserted(t *testing.T) {
	// A regression signature with no output would produce a def with inputs
	// only; such a def is never written.
	sigs := manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input: manifest.TensorBinding{TensorName: "in:0"},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertDefaultSignature(sigs, mg)
	assert.NotContains(t, mg.SignatureDefs, DefaultSignatureDefKey)
}

func TestConvertNamedSignatures(t *testing.T) {
	sigs := manifest.Signatures{
		Named: map[string]manifest.Signature{
			SignatureInputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{
					"foo": {TensorName: "foo:0"},
					"bar": {TensorName: "bar:0"},
				},
			},
			SignatureOutputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{
					"baz": {TensorName: "baz:0"},
				},
			},
			// Named signatures outside the two reserved keys play no part.
			"extra": &manifest.RegressionSignature{
				Input:  manifest.TensorBinding{TensorName: "a:0"},
				Output: manifest.TensorBinding{TensorName: "b:0"},
			},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertNamedSignatures(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, PredictMethodName, sd.MethodName)
	assert.Equal(t, "foo:0", sd.Inputs["foo"].Name)
	assert.Equal(t, "bar:0", sd.Inputs["bar"].Name)
	assert.Equal(t, "baz:0", sd.Outputs["baz"].Name)
	assert.Len(t, mg.SignatureDefs, 1)
}

func TestConvertNamedMissingOutputsKey(t *testing.T) {
	sigs := manifest.Signatures{
		Named: map[string]manifest.Signature{
			SignatureInputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
			},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertNamedSignatures(sigs, mg)
	assert.NotContains(t, mg.SignatureDefs, DefaultSignatureDefKey)
}

func TestConvertNamedNonGenericIsSkipped(t *testing.T) {
	sigs := manifest.Signatures{
		Named: map[string]manifest.Signature{
			SignatureInputs: &manifest.RegressionSignature{
				Input:  manifest.TensorBinding{TensorName: "in:0"},
				Output: manifest.TensorBinding{TensorName: "out:0"},
			},
			SignatureOutputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"y": {TensorName: "y:0"}},
			},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertNamedSignatures(sigs, mg)
	assert.NotContains(t, mg.SignatureDefs, DefaultSignatureDefKey)
}

func TestConvertSignaturesNamedWins(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input:  manifest.TensorBinding{TensorName: "rin:0"},
			Output: manifest.TensorBinding{TensorName: "rout:0"},
		},
		Named: map[string]manifest.Signature{
			SignatureInputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
			},
			SignatureOutputs: &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"y": {TensorName: "y:0"}},
			},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertSignatures(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, PredictMethodName, sd.MethodName)
	assert.Equal(t, "x:0", sd.Inputs["x"].Name)
}

func TestConvertSignaturesDefaultOnlyWhenNamedUnconvertible(t *testing.T) {
	sigs := manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input:  manifest.TensorBinding{TensorName: "rin:0"},
			Output: manifest.TensorBinding{TensorName: "rout:0"},
		},
		Named: map[string]manifest.Signature{
			"unrelated": &manifest.GenericSignature{
				Map: map[string]manifest.TensorBinding{"x": {TensorName: "x:0"}},
			},
		},
	}
	mg := &metagraph.MetaGraphDef{}
	ConvertSignatures(sigs, mg)

	sd := mg.SignatureDefs[DefaultSignatureDefKey]
	require.NotNil(t, sd)
	assert.Equal(t, RegressMethodName, sd.MethodName)
}

func TestGetSignaturesAbsentCollection(t *testing.T) {
	sigs, err := GetSignatures(&metagraph.MetaGraphDef{})
	require.NoError(t, err)
	assert.Nil(t, sigs.Default)
	assert.Empty(t, sigs.Named)
}

func TestGetSignaturesRoundTrip(t *testing.T) {
	want := manifest.Signatures{
		Default: &manifest.RegressionSignature{
			Input:  manifest.TensorBinding{TensorName: "in:0"},
			Output: manifest.TensorBinding{TensorName: "out:0"},
		},
	}
	mg := &metagraph.MetaGraphDef{
		Collections: map[string]*metagraph.CollectionDef{
			SignaturesKey: {AnyList: []metagraph.Any{
				{TypeURL: SignaturesTypeURL, Value: manifest.Marshal(want)},
			}},
		},
	}

	got, err := GetSignatures(mg)
	require.NoError(t, err)
	reg, ok := got.Default.(*manifest.RegressionSignature)
	require.True(t, ok)
	assert.Equal(t, "in:0", reg.Input.TensorName)
	assert.Equal(t, "out:0", reg.Output.TensorName)
}

func TestGetSignaturesWrongTypeURL(t *testing.T) {
	mg := &metagraph.MetaGraphDef{
		Collections: map[string]*metagraph.CollectionDef{
			SignaturesKey: {AnyList: []metagraph.Any{
				{TypeURL: "type.googleapis.com/some.other.Message", Value: nil},
			}},
		},
	}
	_, err := GetSignatures(mg)
	assert.ErrorContains(t, err, SignaturesKey)
}

func TestGetSignaturesCorruptPayload(t *testing.T) {
	mg := &metagraph.MetaGraphDef{
		Collections: map[string]*metagraph.CollectionDef{
			SignaturesKey: {AnyList: []metagraph.Any{
				{TypeURL: SignaturesTypeURL, Value: []byte{0x0a}}, // truncated
			}},
		},
	}
	_, err := GetSignatures(mg)
	assert.Error(t, err)
}
