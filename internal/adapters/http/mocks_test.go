package http_test

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// ---- Mock repositories ----

type mockReceiptRepo struct {
	mu       sync.Mutex
	receipts map[domain.ReceiptKey]*domain.WitnessReceipt
}

func newMockReceiptRepo(receipts ...domain.WitnessReceipt) *mockReceiptRepo {
	m := &mockReceiptRepo{receipts: map[domain.ReceiptKey]*domain.WitnessReceipt{}}
	for i := range receipts {
		r := receipts[i]
		m.receipts[r.Key()] = &r
	}
	return m
}

func (m *mockReceiptRepo) Get(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error) {
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
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
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
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[key]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	r.Features, r.ComputedAt = f, &now
	return nil
}

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

// ---- Fixtures ----

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
		"unplaced": {Address: "unplaced"},
	}}
}

func receipt(block int64, hash, tx, wx string) domain.WitnessReceipt {
	return domain.WitnessReceipt{Block: block, Hash: hash, Transmitter: tx, Witness: wx, Challenger: "ch"}
}
