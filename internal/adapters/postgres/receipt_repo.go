package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

const receiptColumns = `
	block, hash, time, challenger, transmitter_address, witness_address,
	witness_is_valid, witness_invalid_reason::text, witness_signal, witness_snr,
	witness_frequency, witness_channel, COALESCE(witness_datarate, ''), distance_km,
	ra, rq, rp, rv, rz, rsk, rku, deepest_barrier, n_barriers, terrain_computed_at`

// ReceiptRepo implements ports.ReceiptRepository with pgx.
type ReceiptRepo struct {
	db *DB
}

// NewReceiptRepo creates a new ReceiptRepo.
func NewReceiptRepo(db *DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// Get returns one witness entry of a receipt.
func (r *ReceiptRepo) Get(ctx context.Context, key domain.ReceiptKey) (*domain.WitnessReceipt, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+receiptColumns+`
		FROM challenge_receipts_parsed
		WHERE hash = $1 AND witness_address = $2
	`, key.Hash, key.Witness)

	rec, err := scanReceipt(row)
	if err != nil {
		return nil, notFound(err, "receipt "+key.String())
	}
	return rec, nil
}

// ListPending returns receipts without terrain features, oldest block first.
func (r *ReceiptRepo) ListPending(ctx context.Context, offset, limit int) ([]domain.WitnessReceipt, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM challenge_receipts_parsed
		WHERE terrain_computed_at IS NULL
		ORDER BY block, hash, witness_address
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.WitnessReceipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *rec)
	}
	return receipts, rows.Err()
}

// CountPending returns the number of receipts without terrain features.
func (r *ReceiptRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM challenge_receipts_parsed WHERE terrain_computed_at IS NULL
	`).Scan(&n)
	return n, err
}

// SaveFeatures writes the nine feature columns. Absent values are stored as NULL.
func (r *ReceiptRepo) SaveFeatures(ctx context.Context, key domain.ReceiptKey, f domain.FeatureSet) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE challenge_receipts_parsed
		SET ra = $3, rq = $4, rp = $5, rv = $6, rz = $7, rsk = $8, rku = $9,
		    deepest_barrier = $10, n_barriers = $11, terrain_computed_at = $12
		WHERE hash = $1 AND witness_address = $2
	`, key.Hash, key.Witness,
		f.Ra, f.Rq, f.Rp, f.Rv, f.Rz, f.Rsk, f.Rku,
		f.DeepestBarrier, f.NBarriers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save features %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("receipt %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

func scanReceipt(row pgx.Row) (*domain.WitnessReceipt, error) {
	var (
		rec    domain.WitnessReceipt
		reason *string
	)
	if err := row.Scan(
		&rec.Block, &rec.Hash, &rec.Time, &rec.Challenger, &rec.Transmitter, &rec.Witness,
		&rec.IsValid, &reason, &rec.Signal, &rec.SNR,
		&rec.Frequency, &rec.Channel, &rec.Datarate, &rec.DistanceKm,
		&rec.Features.Ra, &rec.Features.Rq, &rec.Features.Rp, &rec.Features.Rv, &rec.Features.Rz,
		&rec.Features.Rsk, &rec.Features.Rku, &rec.Features.DeepestBarrier, &rec.Features.NBarriers,
		&rec.ComputedAt,
	); err != nil {
		return nil, err
	}
	if reason != nil {
		ir := domain.InvalidReason(*reason)
		rec.InvalidReason = &ir
	}
	return &rec, nil
}
