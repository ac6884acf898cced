// Package shim upgrades legacy session-bundle exports into the unified
// signature-definition format consumed by the serving runtime.
package shim

// Reserved strings of the legacy compatibility contract. Every value here is
// load-bearing: the legacy runtime matched these exact strings, so any
// change breaks old exports. Keep them in this one table.
const (
	// SignaturesKey is the side-collection key holding the packed legacy
	// signature record.
	SignaturesKey = "serving_signatures"

	// InitOpKey is the side-collection key naming the graph op to run once
	// after variable restoration.
	InitOpKey = "serving_init_op"

	// DefaultSignatureDefKey is the signature-def map key under which the
	// converted default servable signature is always written.
	DefaultSignatureDefKey = "serving_default"

	// SignatureInputs and SignatureOutputs are the role keys: the input key
	// of converted regression signatures, and the two reserved named
	// signature keys recognized for predict conversion.
	SignatureInputs  = "inputs"
	SignatureOutputs = "outputs"

	// ClassifyOutputClasses and ClassifyOutputScores key the two outputs of
	// a converted classification signature.
	ClassifyOutputClasses = "classes"
	ClassifyOutputScores  = "scores"

	// Serving method names.
	RegressMethodName  = "tensorflow/serving/regress"
	ClassifyMethodName = "tensorflow/serving/classify"
	PredictMethodName  = "tensorflow/serving/predict"

	// SignaturesTypeURL tags the packed signature record in the collection.
	SignaturesTypeURL = "type.googleapis.com/tensorflow.serving.Signatures"

	// MetaGraphDefFilename and VariablesFilenamePattern locate the export's
	// artifacts inside its directory.
	MetaGraphDefFilename     = "export.meta"
	VariablesFilenamePattern = "export-*-of-*"
)
