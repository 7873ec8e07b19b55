package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/witnessterrain/internal/core/usecases"
)

const (
	defaultBatchSize   = 500
	defaultBatchPerRun = 100
)

// BackfillInput configures a backfill run. Offset, Processed and Skipped
// carry progress across continue-as-new.
type BackfillInput struct {
	BatchSize        int
	MaxBatchesPerRun int
	Offset           int
	Processed        int
	Skipped          int
}

// BackfillResult is returned when no pending receipts remain.
type BackfillResult struct {
	Processed int
	Skipped   int
}

// BackfillWorkflow featurizes every pending receipt page by page. Skipped
// receipts stay pending, so the next page starts after them. Long runs
// continue as new to keep history bounded.
func BackfillWorkflow(ctx workflow.Context, input BackfillInput) (BackfillResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.BatchSize <= 0 {
		input.BatchSize = defaultBatchSize
	}
	if input.MaxBatchesPerRun <= 0 {
		input.MaxBatchesPerRun = defaultBatchPerRun
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	if input.Offset == 0 && input.Processed == 0 {
		var pending int
		if err := workflow.ExecuteActivity(ctx, CountPendingActivity).Get(ctx, &pending); err != nil {
			return BackfillResult{}, err
		}
		logger.Info("Starting terrain backfill", "pending", pending, "batchSize", input.BatchSize)
	}

	for batches := 0; ; batches++ {
		if batches == input.MaxBatchesPerRun {
			logger.Info("Continuing backfill as new", "offset", input.Offset, "processed", input.Processed)
			return BackfillResult{}, workflow.NewContinueAsNewError(ctx, BackfillWorkflow, input)
		}

		var res usecases.BatchResult
		err := workflow.ExecuteActivity(ctx, FeaturizeBatchActivity, input.Offset, input.BatchSize).Get(ctx, &res)
		if err != nil {
			logger.Error("Backfill batch failed", "offset", input.Offset, "error", err)
			return BackfillResult{Processed: input.Processed, Skipped: input.Skipped}, err
		}

		input.Processed += res.Processed
		input.Skipped += res.Skipped
		input.Offset += res.Skipped

		if res.Listed < input.BatchSize {
			logger.Info("Terrain backfill complete", "processed", input.Processed, "skipped", input.Skipped)
			return BackfillResult{Processed: input.Processed, Skipped: input.Skipped}, nil
		}
	}
}
