package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type RequestRepo struct {
	db Querier
}

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{db: pool}
}

func (r *RequestRepo) WithTx(tx pgx.Tx) *RequestRepo {
	return &RequestRepo{db: tx}
}

const requestColumns = `id, guest_address, host_address, window_start, window_end,
	duration_mins, offer_nano, expires_at, status,
	accepted_slot_id, accepted_booking_id, accepted_by,
	created_at, updated_at`

func scanRequest(row pgx.Row) (*models.Request, error) {
	var q models.Request
	err := row.Scan(&q.ID, &q.GuestAddress, &q.HostAddress, &q.WindowStart,
		&q.WindowEnd, &q.DurationMins, &q.OfferNano, &q.ExpiresAt, &q.Status,
		&q.AcceptedSlotID, &q.AcceptedBookingID, &q.AcceptedBy,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *RequestRepo) Create(ctx context.Context, q *models.Request) (*models.Request, error) {
	return scanRequest(r.db.QueryRow(ctx, `
		INSERT INTO requests (guest_address, host_address, window_start, window_end,
			duration_mins, offer_nano, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+requestColumns,
		q.GuestAddress, q.HostAddress, q.WindowStart, q.WindowEnd,
		q.DurationMins, q.OfferNano, q.ExpiresAt, models.RequestStatusOpen))
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return scanRequest(r.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
}

func (r *RequestRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return scanRequest(r.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id))
}

func (r *RequestRepo) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE requests SET status = $2, updated_at = now() WHERE id = $1
	`, id, models.RequestStatusCancelled)
	return err
}

func (r *RequestRepo) MarkAccepted(ctx context.Context, id uuid.UUID, slotID, bookingID uuid.UUID, acceptedBy string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE requests SET
			status = $2, accepted_slot_id = $3, accepted_booking_id = $4,
			accepted_by = $5, updated_at = now()
		WHERE id = $1
	`, id, models.RequestStatusAccepted, slotID, bookingID, acceptedBy)
	return err
}

// ListOpen returns live requests a host could accept: still open, not past
// expiry, and either untargeted or targeted at this host. Empty host lists
// every live request.
func (r *RequestRepo) ListOpen(ctx context.Context, host string, now time.Time, limit, offset int) ([]models.Request, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE status = $1 AND expires_at > $2
		  AND ($3 = '' OR host_address IS NULL OR host_address = $3)
		ORDER BY offer_nano DESC, created_at ASC
		LIMIT $4 OFFSET $5
	`, models.RequestStatusOpen, now, host, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		q, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *RequestRepo) ListByGuest(ctx context.Context, guest string, limit, offset int) ([]models.Request, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE guest_address = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, guest, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		q, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// ListExpired returns open requests past expiry, oldest first. The sweeper
// refunds them.
func (r *RequestRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Request, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3
	`, models.RequestStatusOpen, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		q, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}
