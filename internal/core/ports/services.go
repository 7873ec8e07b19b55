package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// ElevationRaster is a read-only elevation model on a regular lat/lon grid.
// Implementations must be safe for concurrent use.
type ElevationRaster interface {
	// Resolution returns the pixel size in degrees along x (longitude) and y (latitude).
	Resolution() (xRes, yRes float64)
	// Index maps a coordinate to the (row, col) of the pixel containing it.
	Index(lon, lat float64) (row, col int)
	// ReadWindow returns a Height x Width copy of the window's elevations in metres.
	ReadWindow(ctx context.Context, window domain.RasterWindow) ([][]float64, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFeatures(ctx context.Context, key domain.ReceiptKey, features domain.FeatureSet) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeReceipts(ctx context.Context, handler func(ctx context.Context, receipt *domain.WitnessReceipt) error) error
}

// ErrCacheMiss is returned by CacheService.Get when the key is not set.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
