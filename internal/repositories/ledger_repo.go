package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

// ErrHeldUnderflow is returned when a release would drive total held below
// zero, which would mean the books are corrupt.
var ErrHeldUnderflow = errors.New("ledger: total held would go negative")

type LedgerRepo struct {
	db Querier
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{db: pool}
}

func (r *LedgerRepo) WithTx(tx pgx.Tx) *LedgerRepo {
	return &LedgerRepo{db: tx}
}

func (r *LedgerRepo) Get(ctx context.Context) (*models.Ledger, error) {
	var l models.Ledger
	err := r.db.QueryRow(ctx, `
		SELECT total_held_nano, custody_balance_nano, updated_at FROM ledger
	`).Scan(&l.TotalHeldNano, &l.CustodyBalanceNano, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetForUpdate locks the single ledger row, serializing every money
// movement that runs through a transaction.
func (r *LedgerRepo) GetForUpdate(ctx context.Context) (*models.Ledger, error) {
	var l models.Ledger
	err := r.db.QueryRow(ctx, `
		SELECT total_held_nano, custody_balance_nano, updated_at FROM ledger FOR UPDATE
	`).Scan(&l.TotalHeldNano, &l.CustodyBalanceNano, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// AddHeld adjusts total held by delta (positive on escrow, negative on
// release). The CHECK constraint backstops underflow; we surface it as
// ErrHeldUnderflow for callers.
func (r *LedgerRepo) AddHeld(ctx context.Context, delta int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ledger SET
			total_held_nano = total_held_nano + $1,
			updated_at = now()
		WHERE total_held_nano + $1 >= 0
	`, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHeldUnderflow
	}
	return nil
}

// AddCustody adjusts the observed hot-wallet balance. Positive on indexed
// deposits, negative as payouts are sent.
func (r *LedgerRepo) AddCustody(ctx context.Context, delta int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE ledger SET
			custody_balance_nano = custody_balance_nano + $1,
			updated_at = now()
	`, delta)
	return err
}

// CreateDeposit records an indexed incoming transfer. The unique tx_lt
// index makes re-indexing the same transaction a no-op; inserted reports
// whether this call actually credited anything.
func (r *LedgerRepo) CreateDeposit(ctx context.Context, d *models.Deposit) (inserted bool, err error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO deposits (tx_lt, from_address, amount_nano, memo)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tx_lt) DO NOTHING
	`, d.TxLT, d.FromAddress, d.AmountNano, d.Memo)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
