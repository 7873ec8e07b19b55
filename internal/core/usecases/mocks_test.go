package usecases_test

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
)

// --- Mock ReceiptRepository ---

type mockReceiptRepo struct {
	mu       sync.Mutex
	receipts map[domain.ReceiptKey]*domain.WitnessReceipt
	saved    map[domain.ReceiptKey]domain.FeatureSet

	getFn  func(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error)
	saveFn func(ctx context.Context, key domain.ReceiptKey, f domain.FeatureSet) error
}

func newMockReceiptRepo(receipts ...domain.WitnessReceipt) *mockReceiptRepo {
	m := &mockReceiptRepo{
		receipts: map[domain.ReceiptKey]*domain.WitnessReceipt{},
		saved:    map[domain.ReceiptKey]domain.FeatureSet{},
	}
	for i := range receipts {
		r := receipts[i]
		m.receipts[r.Key()] = &r
	}
	return m
}

func (m *mockReceiptRepo) Get(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReceiptRepo) pending() []domain.WitnessReceipt {
	var out []domain.WitnessReceipt
	for _, r := range m.receipts {
		if r.ComputedAt == nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

func (m *mockReceiptRepo) ListPending(ctx context.Context, offset, limit int) ([]domain.WitnessReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pending()
	if offset >= len(p) {
		return nil, nil
	}
	p = p[offset:]
	if len(p) > limit {
		p = p[:limit]
	}
	return p, nil
}

func (m *mockReceiptRepo) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending()), nil
}

func (m *mockReceiptRepo) SaveFeatures(ctx context.Context, key domain.ReceiptKey, f domain.FeatureSet) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, key, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[key]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	r.Features, r.ComputedAt = f, &now
	m.saved[key] = f
	return nil
}

// --- Mock GatewayRepository ---

type mockGatewayRepo struct {
	gateways map[string]domain.Gateway
}

func (m *mockGatewayRepo) GetByAddress(ctx context.Context, address string) (*domain.Gateway, error) {
	g, ok := m.gateways[address]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (m *mockGatewayRepo) GetByAddresses(ctx context.Context, addresses []string) ([]domain.Gateway, error) {
	var out []domain.Gateway
	for _, a := range addresses {
		if g, ok := m.gateways[a]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return b, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.ReceiptKey
}

func (m *mockPublisher) PublishFeatures(ctx context.Context, key domain.ReceiptKey, f domain.FeatureSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, key)
	return nil
}

// --- Fixtures ---

// tenKmEast is the longitude 10 km due east of (0, 0).
var tenKmEast = 10.0 / 6371.0 * 180 / math.Pi

// ridgeGrid is flat at 100 m with a 300 m ridge across columns 240-249.
func ridgeGrid(t *testing.T) *raster.Grid {
	t.Helper()
	g, err := raster.NewGridFunc(-0.2, 0.2, 0.001, 400, 400, func(_, col int) float64 {
		if col >= 240 && col < 250 {
			return 300
		}
		return 100
	})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func gatewayFixtures() *mockGatewayRepo {
	return &mockGatewayRepo{gateways: map[string]domain.Gateway{
		"tx":       {Address: "tx", Location: &domain.GeoPoint{Lat: 0, Lon: 0}, Elevation: 10},
		"wx":       {Address: "wx", Location: &domain.GeoPoint{Lat: 0, Lon: tenKmEast}, Elevation: 10},
		"near":     {Address: "near", Location: &domain.GeoPoint{Lat: 0, Lon: 0}, Elevation: 5},
		"unplaced": {Address: "unplaced"},
	}}
}

func receipt(block int64, hash, tx, wx string) domain.WitnessReceipt {
	return domain.WitnessReceipt{Block: block, Hash: hash, Transmitter: tx, Witness: wx, Challenger: "ch"}
}
