package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// ImportBatchSize is the number of rows sent per pgx batch.
const ImportBatchSize = 500

// Importer bulk-loads chain ETL exports.
type Importer struct {
	db *DB
}

// NewImporter creates a new Importer.
func NewImporter(db *DB) *Importer {
	return &Importer{db: db}
}

// UpsertGateways inserts or refreshes gateway inventory rows.
func (im *Importer) UpsertGateways(ctx context.Context, gateways []domain.Gateway) error {
	batch := &pgx.Batch{}
	for _, g := range gateways {
		var lat, lng *float64
		if g.Location != nil {
			lat, lng = &g.Location.Lat, &g.Location.Lon
		}
		batch.Queue(`
			INSERT INTO gateway_inventory (address, owner, name, lat, lng, elevation, gain, mode)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (address) DO UPDATE
			SET owner = EXCLUDED.owner, name = EXCLUDED.name,
			    lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			    elevation = EXCLUDED.elevation, gain = EXCLUDED.gain, mode = EXCLUDED.mode
		`, g.Address, nilEmpty(g.Owner), nilEmpty(g.Name), lat, lng, g.Elevation, g.Gain, nilEmpty(g.Mode))
	}
	_, err := im.flush(ctx, batch)
	return err
}

// InsertReceipts inserts parsed receipts and returns those that were new.
// Existing (hash, witness) rows are left untouched so stored features survive
// a re-import.
func (im *Importer) InsertReceipts(ctx context.Context, receipts []domain.WitnessReceipt) ([]domain.WitnessReceipt, error) {
	batch := &pgx.Batch{}
	for _, r := range receipts {
		var reason *string
		if r.InvalidReason != nil {
			s := string(*r.InvalidReason)
			reason = &s
		}
		batch.Queue(`
			INSERT INTO challenge_receipts_parsed (
				block, hash, time, challenger, transmitter_address, witness_address,
				witness_is_valid, witness_invalid_reason, witness_signal, witness_snr,
				witness_frequency, witness_channel, witness_datarate, distance_km)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::witness_invalid_reason_type, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (hash, witness_address) DO NOTHING
		`, r.Block, r.Hash, r.Time, r.Challenger, r.Transmitter, r.Witness,
			r.IsValid, reason, r.Signal, r.SNR,
			r.Frequency, r.Channel, nilEmpty(r.Datarate), r.DistanceKm)
	}

	affected, err := im.flush(ctx, batch)
	if err != nil {
		return nil, err
	}
	var inserted []domain.WitnessReceipt
	for i, n := range affected {
		if n > 0 {
			inserted = append(inserted, receipts[i])
		}
	}
	return inserted, nil
}

// flush sends a batch and returns the rows affected per queued statement.
func (im *Importer) flush(ctx context.Context, batch *pgx.Batch) ([]int64, error) {
	if batch.Len() == 0 {
		return nil, nil
	}
	br := im.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	affected := make([]int64, batch.Len())
	for i := range affected {
		tag, err := br.Exec()
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		affected[i] = tag.RowsAffected()
	}
	return affected, nil
}

func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
