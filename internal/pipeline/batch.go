package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult summarizes one batch run.
type BatchResult struct {
	Processed int64 `json:"processed"`
	Errors    int64 `json:"errors"`
}

// ProcessBatch drains the pending queue in batches of batchSize, running up to
// maxConcurrent records at a time. It stops when the queue is empty or the
// context is canceled; per-record failures are counted and do not stop the run.
func (p *Processor) ProcessBatch(ctx context.Context, batchSize, maxConcurrent int) (BatchResult, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	var res BatchResult
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pending, err := p.store.ListPending(ctx, batchSize)
		if err != nil {
			return res, err
		}
		if len(pending) == 0 {
			return res, nil
		}

		ids := make([]int64, len(pending))
		for i, c := range pending {
			ids[i] = c.ID
		}
		if err := p.store.MarkProcessing(ctx, ids); err != nil {
			return res, err
		}

		var processed, errored int64
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)
		for _, c := range pending {
			g.Go(func() error {
				if err := p.Process(gCtx, c); err != nil {
					if gCtx.Err() != nil {
						return err
					}
					atomic.AddInt64(&errored, 1)
					zap.L().Error("record failed",
						zap.Int64("contractor_id", c.ID),
						zap.Error(err))
					return nil
				}
				atomic.AddInt64(&processed, 1)
				return nil
			})
		}
		err = g.Wait()
		res.Processed += processed
		res.Errors += errored
		if err != nil {
			return res, err
		}

		zap.L().Info("batch complete",
			zap.Int64("processed", processed),
			zap.Int64("errors", errored))
	}
}
