package shim

import (
	"fmt"
	"strings"

	"github.com/born-ml/bundleshim/internal/manifest"
	"github.com/born-ml/bundleshim/internal/metagraph"
)

// GetSignatures locates and decodes the legacy signature record in the
// export's side collections. Exports without signature metadata are valid:
// an absent collection (or an empty one) yields an empty record and no
// error, and the converters then simply produce nothing.
func GetSignatures(mg *metagraph.MetaGraphDef) (manifest.Signatures, error) {
	coll, ok := mg.Collections[SignaturesKey]
	if !ok || len(coll.AnyList) == 0 {
		return manifest.Signatures{}, nil
	}

	// The legacy writer stored exactly one packed record; tolerate extras by
	// taking the first.
	packed := coll.AnyList[0]
	if packed.TypeURL != "" && !strings.HasSuffix(packed.TypeURL, "Signatures") {
		return manifest.Signatures{}, fmt.Errorf("collection %q holds %q, want %q",
			SignaturesKey, packed.TypeURL, SignaturesTypeURL)
	}

	sigs, err := manifest.Parse(packed.Value)
	if err != nil {
		return manifest.Signatures{}, fmt.Errorf("decode %q collection: %w", SignaturesKey, err)
	}
	return sigs, nil
}
