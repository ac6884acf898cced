package shim

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/born-ml/bundleshim/internal/checkpoint"
	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/session"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// LoadOptions configures legacy export loading.
type LoadOptions struct {
	// Logger receives load progress. Nil disables logging.
	Logger *zap.Logger

	// RunInitOp controls whether the export's init op, if declared, is run
	// after variable restoration.
	RunInitOp bool
}

// DefaultLoadOptions returns the options used by the serving path: no
// logging, init op enabled.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{RunInitOp: true}
}

// Bundle is a loaded export, ready to serve. MetaGraph always carries a
// signature def under DefaultSignatureDefKey when the legacy record held a
// convertible signature.
type Bundle struct {
	Session   *session.Session
	MetaGraph *metagraph.MetaGraphDef
}

// LoadSavedModelFromLegacyPath loads a legacy export directory: parse the
// meta graph, restore variables from the sharded checkpoint files, run the
// init op, and upgrade the legacy signatures in place.
//
// Missing directories or artifacts report ErrNotFound. Legacy signatures
// that have no upgrade path are not errors; the bundle simply loads without
// a default signature def.
func LoadSavedModelFromLegacyPath(opts LoadOptions, exportDir string) (*Bundle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	logger.Info("loading legacy export", zap.String("dir", exportDir))

	mg, err := metagraph.ParseFile(filepath.Join(exportDir, MetaGraphDefFilename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("export %s: %s: %w", exportDir, MetaGraphDefFilename, ErrNotFound)
		}
		return nil, fmt.Errorf("export %s: %w", exportDir, err)
	}

	sess, err := session.New(mg.Graph)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", exportDir, err)
	}

	if err := restoreVariables(logger, sess, exportDir); err != nil {
		return nil, fmt.Errorf("export %s: %w", exportDir, err)
	}

	if opts.RunInitOp {
		if err := runInitOp(logger, sess, mg); err != nil {
			return nil, fmt.Errorf("export %s: %w", exportDir, err)
		}
	}

	sigs, err := GetSignatures(mg)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", exportDir, err)
	}
	ConvertSignatures(sigs, mg)
	if _, ok := mg.SignatureDefs[DefaultSignatureDefKey]; !ok {
		logger.Warn("export has no convertible signature", zap.String("dir", exportDir))
	}

	logger.Info("export loaded",
		zap.String("dir", exportDir),
		zap.Int("nodes", len(mg.Graph.Nodes)),
		zap.Duration("elapsed", time.Since(start)))
	return &Bundle{Session: sess, MetaGraph: mg}, nil
}

// restoreVariables finds the export's checkpoint shards and loads their
// merged contents into the session. An export whose graph has no variables
// may legitimately ship no shards.
func restoreVariables(logger *zap.Logger, sess *session.Session, exportDir string) error {
	shards, err := filepath.Glob(filepath.Join(exportDir, VariablesFilenamePattern))
	if err != nil {
		return fmt.Errorf("list variable shards: %w", err)
	}
	if len(shards) == 0 {
		if sess.HasVariables() {
			return fmt.Errorf("no variable shards match %s: %w", VariablesFilenamePattern, ErrNotFound)
		}
		return nil
	}

	merged := make(map[string]*tensor.RawTensor)
	for _, shard := range shards {
		vars, err := checkpoint.Read(shard)
		if err != nil {
			return fmt.Errorf("shard %s: %w", filepath.Base(shard), err)
		}
		for name, value := range vars {
			merged[name] = value
		}
	}
	logger.Info("variables restored",
		zap.Int("shards", len(shards)),
		zap.Int("variables", len(merged)))
	return sess.Restore(merged)
}

// runInitOp runs the op named by the init-op collection, if present. The
// legacy writer stored exactly one name; extras are rejected rather than
// silently run in an unspecified order.
func runInitOp(logger *zap.Logger, sess *session.Session, mg *metagraph.MetaGraphDef) error {
	coll, ok := mg.Collections[InitOpKey]
	if !ok || len(coll.NodeList) == 0 {
		return nil
	}
	if len(coll.NodeList) > 1 {
		return fmt.Errorf("collection %q names %d ops, want 1", InitOpKey, len(coll.NodeList))
	}
	name := coll.NodeList[0]
	logger.Info("running init op", zap.String("op", name))
	if err := sess.RunTarget(name); err != nil {
		return fmt.Errorf("init op %s: %w", name, err)
	}
	return nil
}
