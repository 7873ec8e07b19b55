package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/adapters/valkey"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// Infrastructure handles may be nil; readiness reports them as not configured.
type Dependencies struct {
	Features *usecases.FeatureService
	Receipts *usecases.ReceiptService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	Version  string
}
