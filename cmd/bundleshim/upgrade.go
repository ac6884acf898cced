package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/shim"
)

var upgradeOutput string

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [export-dir]",
	Short: "Convert legacy signatures and write an upgraded meta graph",
	Long: `Loads the export fully (variables restored, init op run, signatures
converted) and writes the upgraded meta graph next to the original. The
variable shards are reused as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().StringVarP(&upgradeOutput, "output", "o", "upgraded.meta",
		"output filename, relative to the export directory unless absolute")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	exportDir := args[0]
	opts := shim.DefaultLoadOptions()
	opts.Logger = log

	bundle, err := shim.LoadSavedModelFromLegacyPath(opts, exportDir)
	if err != nil {
		return err
	}
	if _, ok := bundle.MetaGraph.SignatureDefs[shim.DefaultSignatureDefKey]; !ok {
		return fmt.Errorf("export %s has no convertible signature", exportDir)
	}

	out := upgradeOutput
	if !filepath.IsAbs(out) {
		out = filepath.Join(exportDir, out)
	}
	if err := metagraph.WriteFile(out, bundle.MetaGraph); err != nil {
		return err
	}
	log.Info("wrote upgraded meta graph", zap.String("path", out))
	return nil
}
