// Package manifest models the legacy signature record stored in a session
// bundle export's side collection. The wire layout follows the original
// manifest schema; only the signature messages are supported here because
// nothing else from the manifest survives the upgrade.
package manifest

// Signatures is the legacy signature record attached to an export: at most
// one default signature plus arbitrarily many named signatures.
type Signatures struct {
	Default Signature            // nil when absent or when the record carried no recognized variant
	Named   map[string]Signature // keyed by arbitrary export-chosen names
}

// Signature is the legacy signature variant. It is a closed sum type: the
// only implementations are RegressionSignature, ClassificationSignature and
// GenericSignature, mirroring the oneof in the legacy schema. Converters
// switch exhaustively over these three.
type Signature interface {
	isSignature()
}

// TensorBinding names a tensor in the export's graph.
type TensorBinding struct {
	TensorName string
}

// RegressionSignature describes a single-input single-output regression.
type RegressionSignature struct {
	Input  TensorBinding
	Output TensorBinding
}

func (*RegressionSignature) isSignature() {}

// ClassificationSignature describes a classification with separate class and
// score output tensors.
type ClassificationSignature struct {
	Input   TensorBinding
	Classes TensorBinding
	Scores  TensorBinding
}

func (*ClassificationSignature) isSignature() {}

// GenericSignature is a role-less bag of named tensor bindings.
type GenericSignature struct {
	Map map[string]TensorBinding
}

func (*GenericSignature) isSignature() {}
