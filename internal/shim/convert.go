package shim

import (
	"github.com/born-ml/bundleshim/internal/manifest"
	"github.com/born-ml/bundleshim/internal/metagraph"
)

// ConvertSignatures runs both converters against the legacy record, in the
// fixed order the legacy runtime used: default first, then named. Both write
// under DefaultSignatureDefKey, so when both apply the named conversion wins
// by overwriting. Unconvertible shapes produce no entries and no errors.
func ConvertSignatures(sigs manifest.Signatures, mg *metagraph.MetaGraphDef) {
	ConvertDefaultSignature(sigs, mg)
	ConvertNamedSignatures(sigs, mg)
}

// ConvertDefaultSignature converts the legacy default signature, if any,
// into a signature def under the reserved default key.
//
// Regression and classification variants have fixed role labels and convert
// directly. Generic variants carry no input/output roles, so there is no
// upgrade path for them; they are dropped on purpose, not by omission.
func ConvertDefaultSignature(sigs manifest.Signatures, mg *metagraph.MetaGraphDef) {
	sd := &metagraph.SignatureDef{}
	switch s := sigs.Default.(type) {
	case nil:
		// Absent, or present with no recognized variant. Same outcome.
		return
	case *manifest.RegressionSignature:
		if s.Input.TensorName != "" {
			AddInputToSignatureDef(s.Input.TensorName, SignatureInputs, sd)
		}
		if s.Output.TensorName != "" {
			AddOutputToSignatureDef(s.Output.TensorName, SignatureOutputs, sd)
		}
		sd.MethodName = RegressMethodName
	case *manifest.ClassificationSignature:
		if s.Input.TensorName != "" {
			AddInputToSignatureDef(s.Input.TensorName, SignatureInputs, sd)
		}
		if s.Classes.TensorName != "" {
			AddOutputToSignatureDef(s.Classes.TensorName, ClassifyOutputClasses, sd)
		}
		if s.Scores.TensorName != "" {
			AddOutputToSignatureDef(s.Scores.TensorName, ClassifyOutputScores, sd)
		}
		sd.MethodName = ClassifyMethodName
	case *manifest.GenericSignature:
		return
	}
	insertDefaultSignatureDef(mg, sd)
}

// ConvertNamedSignatures converts the legacy named signatures into a predict
// signature def under the reserved default key.
//
// The named mechanism is a bag of role-less signatures; the only recoverable
// role information is the convention of binding generic signatures under the
// literal keys "inputs" and "outputs". Both must be present and both must be
// generic, otherwise nothing is converted.
func ConvertNamedSignatures(sigs manifest.Signatures, mg *metagraph.MetaGraphDef) {
	inputSig, ok := sigs.Named[SignatureInputs]
	if !ok {
		return
	}
	outputSig, ok := sigs.Named[SignatureOutputs]
	if !ok {
		return
	}
	inputs, ok := inputSig.(*manifest.GenericSignature)
	if !ok {
		return
	}
	outputs, ok := outputSig.(*manifest.GenericSignature)
	if !ok {
		return
	}

	sd := &metagraph.SignatureDef{MethodName: PredictMethodName}
	for key, binding := range inputs.Map {
		AddInputToSignatureDef(binding.TensorName, key, sd)
	}
	for key, binding := range outputs.Map {
		AddOutputToSignatureDef(binding.TensorName, key, sd)
	}
	insertDefaultSignatureDef(mg, sd)
}

// insertDefaultSignatureDef writes sd under the reserved default key,
// replacing any previous entry. A def missing either side would not be
// servable, so it is not written at all.
func insertDefaultSignatureDef(mg *metagraph.MetaGraphDef, sd *metagraph.SignatureDef) {
	if len(sd.Inputs) == 0 || len(sd.Outputs) == 0 {
		return
	}
	if mg.SignatureDefs == nil {
		mg.SignatureDefs = make(map[string]*metagraph.SignatureDef)
	}
	mg.SignatureDefs[DefaultSignatureDefKey] = sd
}
