package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type HostRepo struct {
	db Querier
}

func NewHostRepo(pool *pgxpool.Pool) *HostRepo {
	return &HostRepo{db: pool}
}

func (r *HostRepo) WithTx(tx pgx.Tx) *HostRepo {
	return &HostRepo{db: tx}
}

func (r *HostRepo) SetBasePrice(ctx context.Context, address string, priceNano int64) (*models.HostListing, error) {
	var l models.HostListing
	err := r.db.QueryRow(ctx, `
		INSERT INTO host_listings (address, base_price_nano)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET
			base_price_nano = EXCLUDED.base_price_nano,
			updated_at = now()
		RETURNING address, base_price_nano, created_at, updated_at
	`, address, priceNano).Scan(&l.Address, &l.BasePriceNano, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListing returns the host's published base price, or pgx.ErrNoRows if
// the host has never set one.
func (r *HostRepo) GetListing(ctx context.Context, address string) (*models.HostListing, error) {
	var l models.HostListing
	err := r.db.QueryRow(ctx, `
		SELECT address, base_price_nano, created_at, updated_at
		FROM host_listings WHERE address = $1
	`, address).Scan(&l.Address, &l.BasePriceNano, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
