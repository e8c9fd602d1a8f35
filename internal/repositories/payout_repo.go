package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type PayoutRepo struct {
	db Querier
}

func NewPayoutRepo(pool *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{db: pool}
}

func (r *PayoutRepo) WithTx(tx pgx.Tx) *PayoutRepo {
	return &PayoutRepo{db: tx}
}

const payoutColumns = `id, recipient_address, amount_nano, reason, entity_type,
	entity_id, status, tx_hash, created_at, sent_at`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	err := row.Scan(&p.ID, &p.RecipientAddress, &p.AmountNano, &p.Reason,
		&p.EntityType, &p.EntityID, &p.Status, &p.TxHash, &p.CreatedAt, &p.SentAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts an owed transfer. Zero-amount splits are skipped by
// callers, never stored.
func (r *PayoutRepo) Create(ctx context.Context, recipient string, amountNano int64, reason, entityType string, entityID *uuid.UUID) (*models.Payout, error) {
	return scanPayout(r.db.QueryRow(ctx, `
		INSERT INTO payouts (recipient_address, amount_nano, reason, entity_type, entity_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+payoutColumns,
		recipient, amountNano, reason, entityType, entityID, models.PayoutStatusPendingSend))
}

// PendingTotal sums everything queued but not yet sent. Sweep subtracts it
// so surplus never includes owed funds.
func (r *PayoutRepo) PendingTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_nano), 0) FROM payouts WHERE status = $1
	`, models.PayoutStatusPendingSend).Scan(&total)
	return total, err
}

func (r *PayoutRepo) ListPending(ctx context.Context, limit int) ([]models.Payout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+payoutColumns+` FROM payouts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, models.PayoutStatusPendingSend, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PayoutRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.Payout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+payoutColumns+` FROM payouts
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// MarkSent records the on-chain send and returns the amount that left
// custody. Only pending rows flip; marking twice reports false.
func (r *PayoutRepo) MarkSent(ctx context.Context, id uuid.UUID, txHash string, sentAt time.Time) (int64, bool, error) {
	var amount int64
	err := r.db.QueryRow(ctx, `
		UPDATE payouts SET status = $2, tx_hash = $3, sent_at = $4
		WHERE id = $1 AND status = $5
		RETURNING amount_nano
	`, id, models.PayoutStatusSent, txHash, sentAt, models.PayoutStatusPendingSend).Scan(&amount)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}
