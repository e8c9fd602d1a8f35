package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type BookingRepo struct {
	db Querier
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{db: pool}
}

func (r *BookingRepo) WithTx(tx pgx.Tx) *BookingRepo {
	return &BookingRepo{db: tx}
}

const bookingColumns = `b.id, b.slot_id, b.guest_address, b.amount_nano, b.status,
	b.outcome, b.metrics_ref, b.attested_at, b.finalizable_at,
	b.challenger_address, b.bond_nano, b.disputed_at,
	b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.SlotID, &b.GuestAddress, &b.AmountNano, &b.Status,
		&b.Outcome, &b.MetricsRef, &b.AttestedAt, &b.FinalizableAt,
		&b.ChallengerAddress, &b.BondNano, &b.DisputedAt,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookingWithSlot(row pgx.Row) (*models.BookingWithSlot, error) {
	var b models.BookingWithSlot
	err := row.Scan(&b.ID, &b.SlotID, &b.GuestAddress, &b.AmountNano, &b.Status,
		&b.Outcome, &b.MetricsRef, &b.AttestedAt, &b.FinalizableAt,
		&b.ChallengerAddress, &b.BondNano, &b.DisputedAt,
		&b.CreatedAt, &b.UpdatedAt,
		&b.HostAddress, &b.StartTime, &b.DurationMins,
		&b.GraceMins, &b.MinOverlapMins, &b.CancelCutoffMins)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const bookingWithSlotQuery = `
	SELECT ` + bookingColumns + `,
		s.host_address, s.start_time, s.duration_mins,
		s.grace_mins, s.min_overlap_mins, s.cancel_cutoff_mins
	FROM bookings b
	JOIN slots s ON s.id = b.slot_id`

func (r *BookingRepo) Create(ctx context.Context, slotID uuid.UUID, guest string, amountNano int64) (*models.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `
		INSERT INTO bookings AS b (slot_id, guest_address, amount_nano, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+bookingColumns,
		slotID, guest, amountNano, models.BookingStatusBooked))
}

func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id))
}

func (r *BookingRepo) GetWithSlot(ctx context.Context, id uuid.UUID) (*models.BookingWithSlot, error) {
	return scanBookingWithSlot(r.db.QueryRow(ctx,
		bookingWithSlotQuery+` WHERE b.id = $1`, id))
}

// GetWithSlotForUpdate locks the booking row (not the joined slot; callers
// lock the slot separately when they mutate it). Must run inside a tx.
func (r *BookingRepo) GetWithSlotForUpdate(ctx context.Context, id uuid.UUID) (*models.BookingWithSlot, error) {
	return scanBookingWithSlot(r.db.QueryRow(ctx,
		bookingWithSlotQuery+` WHERE b.id = $1 FOR UPDATE OF b`, id))
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

// SetCancelled closes the booking and records which side cancelled.
func (r *BookingRepo) SetCancelled(ctx context.Context, id uuid.UUID, outcome string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings SET status = $2, outcome = $3, updated_at = now()
		WHERE id = $1
	`, id, models.BookingStatusCancelled, outcome)
	return err
}

// SetAttestation records the oracle's verdict and opens the challenge window.
func (r *BookingRepo) SetAttestation(ctx context.Context, id uuid.UUID, outcome string, metricsRef *string, attestedAt, finalizableAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings SET
			status = $2, outcome = $3, metrics_ref = $4,
			attested_at = $5, finalizable_at = $6, updated_at = now()
		WHERE id = $1
	`, id, models.BookingStatusAttested, outcome, metricsRef, attestedAt, finalizableAt)
	return err
}

func (r *BookingRepo) SetDispute(ctx context.Context, id uuid.UUID, challenger string, bondNano int64, disputedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings SET
			status = $2, challenger_address = $3, bond_nano = $4,
			disputed_at = $5, updated_at = now()
		WHERE id = $1
	`, id, models.BookingStatusDisputed, challenger, bondNano, disputedAt)
	return err
}

// SetResolution replaces the attested outcome with the final one and clears
// the dispute fields; the bond's fate lives on in the payout rows. Resolved
// bookings are finalizable immediately; there is no second challenge window.
func (r *BookingRepo) SetResolution(ctx context.Context, id uuid.UUID, outcome string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings SET
			status = $2, outcome = $3, finalizable_at = now(),
			challenger_address = NULL, bond_nano = NULL, disputed_at = NULL,
			updated_at = now()
		WHERE id = $1
	`, id, models.BookingStatusResolved, outcome)
	return err
}

func (r *BookingRepo) ListByGuest(ctx context.Context, guest string, limit, offset int) ([]models.BookingWithSlot, error) {
	return r.list(ctx, bookingWithSlotQuery+`
		WHERE b.guest_address = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`, guest, limit, offset)
}

func (r *BookingRepo) ListByHost(ctx context.Context, host string, limit, offset int) ([]models.BookingWithSlot, error) {
	return r.list(ctx, bookingWithSlotQuery+`
		WHERE s.host_address = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`, host, limit, offset)
}

// ListFinalizable returns attested or resolved bookings whose challenge
// window has passed. Resolved rows carry finalizable_at from the dispute
// resolution (immediate).
func (r *BookingRepo) ListFinalizable(ctx context.Context, now time.Time, limit int) ([]models.BookingWithSlot, error) {
	return r.list(ctx, bookingWithSlotQuery+`
		WHERE b.status IN ($1, $2) AND b.finalizable_at <= $3
		ORDER BY b.finalizable_at ASC
		LIMIT $4`,
		models.BookingStatusAttested, models.BookingStatusResolved, now, limit)
}

// ListDisputesTimedOut returns disputes the arbiter has sat on past the
// timeout.
func (r *BookingRepo) ListDisputesTimedOut(ctx context.Context, now time.Time, timeout time.Duration, limit int) ([]models.BookingWithSlot, error) {
	return r.list(ctx, bookingWithSlotQuery+`
		WHERE b.status = $1 AND b.disputed_at + $2::interval <= $3
		ORDER BY b.disputed_at ASC
		LIMIT $4`,
		models.BookingStatusDisputed, timeout.String(), now, limit)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...any) ([]models.BookingWithSlot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BookingWithSlot
	for rows.Next() {
		b, err := scanBookingWithSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
