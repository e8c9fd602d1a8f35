package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type SlotRepo struct {
	db Querier
}

func NewSlotRepo(pool *pgxpool.Pool) *SlotRepo {
	return &SlotRepo{db: pool}
}

func (r *SlotRepo) WithTx(tx pgx.Tx) *SlotRepo {
	return &SlotRepo{db: tx}
}

const slotColumns = `id, host_address, start_time, duration_mins, price_nano,
	grace_mins, min_overlap_mins, cancel_cutoff_mins, status, booking_id,
	created_at, updated_at`

func scanSlot(row pgx.Row) (*models.Slot, error) {
	var s models.Slot
	err := row.Scan(&s.ID, &s.HostAddress, &s.StartTime, &s.DurationMins,
		&s.PriceNano, &s.GraceMins, &s.MinOverlapMins, &s.CancelCutoffMins,
		&s.Status, &s.BookingID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepo) Create(ctx context.Context, s *models.Slot) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx, `
		INSERT INTO slots (host_address, start_time, duration_mins, price_nano,
			grace_mins, min_overlap_mins, cancel_cutoff_mins, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+slotColumns,
		s.HostAddress, s.StartTime, s.DurationMins, s.PriceNano,
		s.GraceMins, s.MinOverlapMins, s.CancelCutoffMins, models.SlotStatusOpen))
}

func (r *SlotRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = $1`, id))
}

// GetByIDForUpdate locks the slot row for the rest of the transaction.
// Callers must be inside a tx.
func (r *SlotRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStatus moves the slot to a new status and sets or clears the active
// booking link in the same statement.
func (r *SlotRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, bookingID *uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE slots SET status = $2, booking_id = $3, updated_at = now()
		WHERE id = $1
	`, id, status, bookingID)
	return err
}

func (r *SlotRepo) ListByHost(ctx context.Context, host string, status string, limit, offset int) ([]models.Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+` FROM slots
		WHERE host_address = $1 AND ($2 = '' OR status = $2)
		ORDER BY start_time ASC
		LIMIT $3 OFFSET $4
	`, host, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListOpen returns open slots starting after now, soonest first.
func (r *SlotRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+` FROM slots
		WHERE status = $1 AND start_time > now()
		ORDER BY start_time ASC
		LIMIT $2 OFFSET $3
	`, models.SlotStatusOpen, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// HasOverlap reports whether the host already has a non-cancelled slot
// intersecting [start, end).
func (r *SlotRepo) HasOverlap(ctx context.Context, host string, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM slots
			WHERE host_address = $1
			  AND status IN ($2, $3)
			  AND start_time < $5
			  AND start_time + (duration_mins || ' minutes')::interval > $4
		)
	`, host, models.SlotStatusOpen, models.SlotStatusBooked, start, end).Scan(&exists)
	return exists, err
}
