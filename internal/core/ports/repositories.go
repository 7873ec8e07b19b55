package ports

import (
	"context"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// ReceiptRepository persists witness receipts and their terrain features.
type ReceiptRepository interface {
	Get(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error)
	// ListPending returns receipts whose terrain features were never computed,
	// ordered by block.
	ListPending(ctx context.Context, offset, limit int) ([]domain.WitnessReceipt, error)
	CountPending(ctx context.Context) (int, error)
	// SaveFeatures writes the nine feature columns and stamps the computation
	// time, so an all-absent FeatureSet is not picked up again.
	SaveFeatures(ctx context.Context, key domain.ReceiptKey, features domain.FeatureSet) error
}

// GatewayRepository reads the gateway inventory.
type GatewayRepository interface {
	GetByAddress(ctx context.Context, address string) (*domain.Gateway, error)
	GetByAddresses(ctx context.Context, addresses []string) ([]domain.Gateway, error)
}
