package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/scorer"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect and validate scoring weights",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active weights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w, err := scorer.ResolveWeights(cfg.Scoring)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return writeWeights(os.Stdout, format, w)
	},
}

var weightsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured weights or a weights document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		w, err := validateWeights(cfg.Scoring, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "weights OK (hash %s)\n", scorer.ConfigHash(w))
		return nil
	},
}

func init() {
	weightsShowCmd.Flags().String("format", "yaml", "output format: yaml or json")
	weightsValidateCmd.Flags().String("file", "", "weights document to validate (YAML or JSON) instead of the config")

	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsValidateCmd)
	rootCmd.AddCommand(weightsCmd)
}

// validateWeights checks file overlaid on the configured weights, or the
// configured weights alone when file is empty.
func validateWeights(sc config.ScoringConfig, file string) (config.ScoreWeights, error) {
	if file == "" {
		return scorer.ResolveWeights(sc)
	}
	w, err := scorer.LoadWeightsFile(file, sc.Weights)
	if err != nil {
		return w, err
	}
	return w, scorer.ValidateWeights(w)
}

type weightsDoc struct {
	Hash    string              `yaml:"hash" json:"hash"`
	Weights config.ScoreWeights `yaml:"weights" json:"weights"`
}

func writeWeights(out io.Writer, format string, w config.ScoreWeights) error {
	doc := weightsDoc{Hash: scorer.ConfigHash(w), Weights: w}
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "weights: encode yaml")
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return eris.Errorf("weights: unknown format %q (allowed: yaml, json)", format)
	}
}
