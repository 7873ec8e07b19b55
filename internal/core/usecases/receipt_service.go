package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/pkg/metrics"
)

const maxPendingPage = 200

// ReceiptService serves stored witness receipts and their features.
type ReceiptService struct {
	receipts ports.ReceiptRepository
	cache    ports.CacheService
	cacheTTL int
}

// NewReceiptService creates a new ReceiptService. cache may be nil.
func NewReceiptService(receipts ports.ReceiptRepository, cache ports.CacheService, cacheTTL int) *ReceiptService {
	return &ReceiptService{receipts: receipts, cache: cache, cacheTTL: cacheTTL}
}

// GetFeatures returns a stored receipt with its features.
func (s *ReceiptService) GetFeatures(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error) {
	cacheKey := receiptCacheKey(key)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rec domain.WitnessReceipt
			if err := json.Unmarshal(data, &rec); err == nil {
				metrics.CacheHits.WithLabelValues("receipt").Inc()
				return &rec, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("receipt").Inc()
	}

	rec, err := s.receipts.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// pending receipts change as soon as they are featurized
	if s.cache != nil && rec.ComputedAt != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return rec, nil
}

// ListPending returns a page of receipts awaiting features and the total
// number pending.
func (s *ReceiptService) ListPending(ctx context.Context, offset, limit int) ([]domain.WitnessReceipt, int, error) {
	if limit <= 0 || limit > maxPendingPage {
		limit = maxPendingPage
	}
	if offset < 0 {
		offset = 0
	}

	receipts, err := s.receipts.ListPending(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receipts.CountPending(ctx)
	if err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

// CountPending returns the number of receipts awaiting features.
func (s *ReceiptService) CountPending(ctx context.Context) (int, error) {
	return s.receipts.CountPending(ctx)
}
