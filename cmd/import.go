package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importSource string
	importSheet  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load leads from a file or URL into the store",
	Long:  "Reads leads from a JSON, CSV, or XLSX source (local, http(s), or ftp) and upserts them by id. Leads without an id get a stable one derived from the name, so re-importing the same file updates rather than duplicates.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		leads, err := newLoader(cfg, importSheet).Load(ctx, importSource)
		if err != nil {
			return eris.Wrap(err, "import: load")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertLeads(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "import: upsert")
		}

		zap.L().Info("import complete",
			zap.Int("read", len(leads)),
			zap.Int64("upserted", n),
			zap.String("driver", cfg.Store.Driver),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "lead file path or URL (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(importCmd)
}
