//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/witnessterrain/internal/adapters/http"
	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/terrain"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
)

// setupTestDB connects to the database named by the test configuration.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("witnessterrain-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires real repositories over the ridge grid, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	receipts := postgres.NewReceiptRepo(db)
	gateways := postgres.NewGatewayRepo(db)
	opts := usecases.FeatureOptions{Profile: terrain.ProfileOptions{WindowMarginKm: 1}, Workers: 2}

	return &http.Dependencies{
		Features: usecases.NewFeatureService(ridgeGrid(t), receipts, gateways, nil, nil, opts),
		Receipts: usecases.NewReceiptService(receipts, nil, 0),
		DB:       db,
	}
}

// seedReceipt inserts two located gateways and a pending receipt between them.
func seedReceipt(t *testing.T, db *postgres.DB, hash string) {
	ctx := context.Background()
	for _, g := range []struct {
		addr     string
		lat, lng float64
	}{{"itest-tx", 0, 0}, {"itest-wx", 0, tenKmEast}} {
		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO gateway_inventory (address, lat, lng, elevation)
			VALUES ($1, $2, $3, 10)
			ON CONFLICT (address) DO UPDATE SET lat = EXCLUDED.lat, lng = EXCLUDED.lng
		`, g.addr, g.lat, g.lng); err != nil {
			t.Fatalf("seed gateway: %v", err)
		}
	}
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO challenge_receipts_parsed (block, hash, time, challenger, transmitter_address, witness_address)
		VALUES (1, $1, 0, 'itest-tx', 'itest-tx', 'itest-wx')
		ON CONFLICT (hash, witness_address) DO NOTHING
	`, hash); err != nil {
		t.Fatalf("seed receipt: %v", err)
	}
}

func TestReceiptFeatures_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	hash := "itest_" + time.Now().Format("20060102150405")
	seedReceipt(t, db, hash)

	app := setupApp(setupTestDeps(t, db))
	path := "/v1/receipts/" + hash + "/witnesses/itest-wx/features"

	resp, err := app.Test(httptest.NewRequest("POST", path, nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	var stored struct {
		Features   domain.FeatureSet `json:"features"`
		ComputedAt *time.Time        `json:"terrain_computed_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stored.ComputedAt == nil {
		t.Fatal("expected terrain_computed_at to be set")
	}
	if stored.Features.NBarriers == nil || *stored.Features.NBarriers != 1 {
		t.Errorf("expected 1 barrier, got %v", stored.Features.NBarriers)
	}
}

func TestReadyHandler_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
