package shim

import "github.com/born-ml/bundleshim/internal/metagraph"

// AddInputToSignatureDef inserts tensorName under key in the signature
// def's input map. Re-inserting an existing key overwrites it, so repeated
// conversion attempts are safe.
func AddInputToSignatureDef(tensorName, key string, sd *metagraph.SignatureDef) {
	if sd.Inputs == nil {
		sd.Inputs = make(map[string]metagraph.TensorInfo)
	}
	sd.Inputs[key] = metagraph.TensorInfo{Name: tensorName}
}

// AddOutputToSignatureDef inserts tensorName under key in the signature
// def's output map, with the same overwrite-on-collision policy.
func AddOutputToSignatureDef(tensorName, key string, sd *metagraph.SignatureDef) {
	if sd.Outputs == nil {
		sd.Outputs = make(map[string]metagraph.TensorInfo)
	}
	sd.Outputs[key] = metagraph.TensorInfo{Name: tensorName}
}
