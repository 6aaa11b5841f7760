package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/roll"
)

var importCmd = &cobra.Command{
	Use:   "import <roll-file>",
	Short: "Import a contractor license roll (CSV or XLSX)",
	Long:  "Upserts roll records by license number. Re-importing a newer roll updates license fields without touching enrichment results.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		contractors, err := roll.ParseFile(args[0])
		if err != nil {
			return err
		}
		if len(contractors) == 0 {
			zap.L().Warn("roll file contained no importable records")
			return nil
		}

		n, err := st.UpsertContractors(ctx, contractors)
		if err != nil {
			return eris.Wrap(err, "import roll")
		}
		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int64("records", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
