package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/witnessterrain/internal/core/usecases"
)

// Activity names registered by the backfill worker.
const (
	CountPendingActivity   = "CountPending"
	FeaturizeBatchActivity = "FeaturizeBatch"
)

// BackfillActivities holds the activity implementations for the backfill workflow.
type BackfillActivities struct {
	Features *usecases.FeatureService
	Receipts *usecases.ReceiptService
}

// CountPending returns the number of receipts awaiting terrain features.
func (a *BackfillActivities) CountPending(ctx context.Context) (int, error) {
	n, err := a.Receipts.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// FeaturizeBatch computes and stores features for one page of pending receipts.
func (a *BackfillActivities) FeaturizeBatch(ctx context.Context, offset, limit int) (usecases.BatchResult, error) {
	res, err := a.Features.FeaturizeBatch(ctx, offset, limit)
	if err != nil {
		return res, fmt.Errorf("featurize batch at offset %d: %w", offset, err)
	}
	activity.GetLogger(ctx).Info("batch featurized",
		"offset", offset, "listed", res.Listed, "processed", res.Processed, "skipped", res.Skipped)
	return res, nil
}
