package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/bundleshim/internal/shim"
	"github.com/born-ml/bundleshim/internal/tensor"
)

var (
	runInput string
	runShape string
)

var runCmd = &cobra.Command{
	Use:   "run [export-dir]",
	Short: "Load an export and evaluate its default signature",
	Long: `Loads the export, feeds the given float32 values to the signature's sole
input, and prints every signature output.

Example:
  bundleshim run /models/half_plus_two/00000123 --input 0,1,2,3 --shape 4,1`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "comma-separated float32 input values (required)")
	runCmd.Flags().StringVar(&runShape, "shape", "", "comma-separated input shape (required)")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("shape")
}

func runRun(cmd *cobra.Command, args []string) error {
	exportDir := args[0]
	values, err := parseFloats(runInput)
	if err != nil {
		return fmt.Errorf("--input: %w", err)
	}
	shape, err := parseShape(runShape)
	if err != nil {
		return fmt.Errorf("--shape: %w", err)
	}
	input, err := tensor.FromFloat32(values, shape)
	if err != nil {
		return err
	}

	opts := shim.DefaultLoadOptions()
	opts.Logger = log
	bundle, err := shim.LoadSavedModelFromLegacyPath(opts, exportDir)
	if err != nil {
		return err
	}
	sd, ok := bundle.MetaGraph.SignatureDefs[shim.DefaultSignatureDefKey]
	if !ok {
		return fmt.Errorf("export %s has no convertible signature", exportDir)
	}
	if len(sd.Inputs) != 1 {
		return fmt.Errorf("signature has %d inputs, run feeds exactly 1", len(sd.Inputs))
	}

	feeds := make(map[string]*tensor.RawTensor, 1)
	for _, info := range sd.Inputs {
		feeds[info.Name] = input
	}
	outputKeys := make([]string, 0, len(sd.Outputs))
	fetches := make([]string, 0, len(sd.Outputs))
	for key := range sd.Outputs {
		outputKeys = append(outputKeys, key)
	}
	sort.Strings(outputKeys)
	for _, key := range outputKeys {
		fetches = append(fetches, sd.Outputs[key].Name)
	}

	results, err := bundle.Session.Run(feeds, fetches)
	if err != nil {
		return err
	}
	for i, key := range outputKeys {
		fmt.Printf("%s: %v\n", key, results[i].AsFloat32())
	}
	return nil
}

func parseFloats(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", p)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func parseShape(s string) (tensor.Shape, error) {
	parts := strings.Split(s, ",")
	out := make(tensor.Shape, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
