package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchSize       int
	batchConcurrent int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich all pending contractors from the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		size := batchSize
		if size <= 0 {
			size = cfg.Batch.Size
		}
		concurrent := batchConcurrent
		if concurrent <= 0 {
			concurrent = cfg.Batch.MaxConcurrent
		}

		res, err := env.Processor.ProcessBatch(ctx, size, concurrent)
		zap.L().Info("batch run finished",
			zap.Int64("processed", res.Processed),
			zap.Int64("errors", res.Errors))
		return err
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchSize, "size", 0, "records per batch (default from config)")
	batchCmd.Flags().IntVar(&batchConcurrent, "concurrent", 0, "max concurrent records (default from config)")
	rootCmd.AddCommand(batchCmd)
}
