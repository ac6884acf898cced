// Package bundle loads legacy session-bundle exports and upgrades their
// signatures to the unified signature-def format.
//
// # Basic Usage
//
//	import "github.com/born-ml/bundleshim/bundle"
//
//	func main() {
//	    b, err := bundle.Load(bundle.DefaultLoadOptions(), "/models/half_plus_two/00000123")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    sd := b.MetaGraph.SignatureDefs[bundle.DefaultSignatureDefKey]
//	    in, _ := bundle.FromFloat32([]float32{0, 1, 2, 3}, bundle.Shape{4, 1})
//	    out, err := b.Session.Run(
//	        map[string]*bundle.RawTensor{sd.Inputs["inputs"].Name: in},
//	        []string{sd.Outputs["outputs"].Name},
//	    )
//	    ...
//	}
//
// Exports missing their meta graph or variable shards report errors matching
// ErrNotFound. Legacy signatures with no upgrade path load without error;
// the default signature def is simply absent.
package bundle
