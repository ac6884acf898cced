package bundle

import (
	"github.com/born-ml/bundleshim/internal/shim"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// Bundle is a loaded export: an executable session plus the upgraded meta
// graph carrying its signature defs.
type Bundle = shim.Bundle

// LoadOptions configures Load.
type LoadOptions = shim.LoadOptions

// RawTensor carries feed and fetch values for Session.Run.
type RawTensor = tensor.RawTensor

// Shape is a tensor shape, outermost dimension first.
type Shape = tensor.Shape

// ErrNotFound matches errors for missing export directories or artifacts.
var ErrNotFound = shim.ErrNotFound

// Reserved keys of the upgraded signature defs.
const (
	DefaultSignatureDefKey = shim.DefaultSignatureDefKey
	RegressMethodName      = shim.RegressMethodName
	ClassifyMethodName     = shim.ClassifyMethodName
	PredictMethodName      = shim.PredictMethodName
)

// DefaultLoadOptions returns the options used by the serving path.
func DefaultLoadOptions() LoadOptions { return shim.DefaultLoadOptions() }

// Load loads the legacy export at exportDir and upgrades its signatures.
func Load(opts LoadOptions, exportDir string) (*Bundle, error) {
	return shim.LoadSavedModelFromLegacyPath(opts, exportDir)
}

// FromFloat32 builds a float32 tensor from data with the given shape.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape)
}
