package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/shim"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [export-dir]",
	Short: "Summarize an export and preview its signature upgrade",
	Long: `Parses the export's meta graph without restoring variables and prints a
YAML summary: node and collection counts, and the signature def the upgrade
would produce.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// inspectReport is the YAML shape printed by inspect.
type inspectReport struct {
	ExportDir    string                  `yaml:"export_dir"`
	GraphNodes   int                     `yaml:"graph_nodes"`
	GraphVersion int64                   `yaml:"graph_version"`
	Collections  map[string]string       `yaml:"collections"`
	Signature    *inspectSignatureReport `yaml:"signature,omitempty"`
}

type inspectSignatureReport struct {
	Method  string            `yaml:"method"`
	Inputs  map[string]string `yaml:"inputs"`
	Outputs map[string]string `yaml:"outputs"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	exportDir := args[0]
	mg, err := metagraph.ParseFile(filepath.Join(exportDir, shim.MetaGraphDefFilename))
	if err != nil {
		return err
	}
	if mg.Graph == nil {
		return fmt.Errorf("%s has no graph", shim.MetaGraphDefFilename)
	}
	log.Info("parsed meta graph",
		zap.String("dir", exportDir),
		zap.Int("nodes", len(mg.Graph.Nodes)))

	sigs, err := shim.GetSignatures(mg)
	if err != nil {
		return err
	}
	shim.ConvertSignatures(sigs, mg)

	report := inspectReport{
		ExportDir:    exportDir,
		GraphNodes:   len(mg.Graph.Nodes),
		GraphVersion: mg.Graph.Version,
		Collections:  make(map[string]string, len(mg.Collections)),
	}
	for name, coll := range mg.Collections {
		report.Collections[name] = describeCollection(coll)
	}
	if sd, ok := mg.SignatureDefs[shim.DefaultSignatureDefKey]; ok {
		report.Signature = &inspectSignatureReport{
			Method:  sd.MethodName,
			Inputs:  tensorInfoNames(sd.Inputs),
			Outputs: tensorInfoNames(sd.Outputs),
		}
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func describeCollection(c *metagraph.CollectionDef) string {
	switch {
	case c.NodeList != nil:
		return fmt.Sprintf("node_list(%d)", len(c.NodeList))
	case c.BytesList != nil:
		return fmt.Sprintf("bytes_list(%d)", len(c.BytesList))
	case c.AnyList != nil:
		return fmt.Sprintf("any_list(%d)", len(c.AnyList))
	default:
		return "empty"
	}
}

func tensorInfoNames(m map[string]metagraph.TensorInfo) map[string]string {
	out := make(map[string]string, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = m[k].Name
	}
	return out
}
