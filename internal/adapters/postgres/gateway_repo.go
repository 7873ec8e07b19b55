package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

const gatewayColumns = `
	address, COALESCE(owner, ''), COALESCE(name, ''), lat, lng,
	COALESCE(elevation, 0), COALESCE(gain, 0), COALESCE(mode, '')`

// GatewayRepo implements ports.GatewayRepository with pgx.
type GatewayRepo struct {
	db *DB
}

// NewGatewayRepo creates a new GatewayRepo.
func NewGatewayRepo(db *DB) *GatewayRepo {
	return &GatewayRepo{db: db}
}

// GetByAddress returns one gateway.
func (r *GatewayRepo) GetByAddress(ctx context.Context, address string) (*domain.Gateway, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+gatewayColumns+`
		FROM gateway_inventory WHERE address = $1
	`, address)

	g, err := scanGateway(row)
	if err != nil {
		return nil, notFound(err, "gateway "+address)
	}
	return g, nil
}

// GetByAddresses returns the gateways found among addresses, in arbitrary order.
func (r *GatewayRepo) GetByAddresses(ctx context.Context, addresses []string) ([]domain.Gateway, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+gatewayColumns+`
		FROM gateway_inventory WHERE address = ANY($1)
	`, addresses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gateways []domain.Gateway
	for rows.Next() {
		g, err := scanGateway(rows)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, *g)
	}
	return gateways, rows.Err()
}

func scanGateway(row pgx.Row) (*domain.Gateway, error) {
	var (
		g        domain.Gateway
		lat, lng *float64
	)
	if err := row.Scan(&g.Address, &g.Owner, &g.Name, &lat, &lng, &g.Elevation, &g.Gain, &g.Mode); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		g.Location = &domain.GeoPoint{Lat: *lat, Lon: *lng}
	}
	return &g, nil
}
