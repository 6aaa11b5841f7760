package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/export"
)

var (
	exportFormat string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export approved contractors to a download file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		format := exportFormat
		if format == "" {
			format = cfg.Export.Format
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := export.NewExporter(st, cfg.Export.Dir).Run(ctx, f, exportLimit)
		if err != nil {
			return err
		}
		if res.Count == 0 {
			zap.L().Info("no approved records awaiting export")
			return nil
		}
		zap.L().Info("exported",
			zap.Int("records", res.Count),
			zap.String("path", res.Path),
			zap.String("batch_id", res.BatchID))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: csv or xlsx (default from config)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "max records per export batch")
	rootCmd.AddCommand(exportCmd)
}
