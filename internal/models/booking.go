package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses
const (
	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"
	BookingStatusAttested  = "attested"
	BookingStatusDisputed  = "disputed"
	BookingStatusResolved  = "resolved"
	BookingStatusFinalized = "finalized"
)

// Session outcomes. Cancellations are reported through the cancel paths;
// the oracle may only attest the first three.
const (
	OutcomeCompleted        = "completed"
	OutcomeNoShowHost       = "no_show_host"
	OutcomeNoShowGuest      = "no_show_guest"
	OutcomeCancelledByHost  = "cancelled_by_host"
	OutcomeCancelledByGuest = "cancelled_by_guest"
)

// Valid state transitions: from -> []to
var ValidBookingTransitions = map[string][]string{
	BookingStatusBooked:    {BookingStatusCancelled, BookingStatusAttested, BookingStatusFinalized},
	BookingStatusAttested:  {BookingStatusDisputed, BookingStatusFinalized},
	BookingStatusDisputed:  {BookingStatusResolved},
	BookingStatusResolved:  {BookingStatusFinalized},
	BookingStatusCancelled: {},
	BookingStatusFinalized: {},
}

func IsValidBookingTransition(from, to string) bool {
	allowed, ok := ValidBookingTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsAttestableOutcome reports whether the oracle may attest this outcome.
func IsAttestableOutcome(outcome string) bool {
	switch outcome {
	case OutcomeCompleted, OutcomeNoShowHost, OutcomeNoShowGuest:
		return true
	}
	return false
}

func IsValidOutcome(outcome string) bool {
	switch outcome {
	case OutcomeCompleted, OutcomeNoShowHost, OutcomeNoShowGuest,
		OutcomeCancelledByHost, OutcomeCancelledByGuest:
		return true
	}
	return false
}

type Booking struct {
	ID           uuid.UUID `json:"id"`
	SlotID       uuid.UUID `json:"slot_id"`
	GuestAddress string    `json:"guest_address"`
	AmountNano   int64     `json:"amount_nano"` // escrowed, fixed at creation
	Status       string    `json:"status"`

	// Attestation
	Outcome       *string    `json:"outcome,omitempty"`
	MetricsRef    *string    `json:"metrics_ref,omitempty"`
	AttestedAt    *time.Time `json:"attested_at,omitempty"`
	FinalizableAt *time.Time `json:"finalizable_at,omitempty"`

	// Dispute (cleared once resolved)
	ChallengerAddress *string    `json:"challenger_address,omitempty"`
	BondNano          *int64     `json:"bond_nano,omitempty"`
	DisputedAt        *time.Time `json:"disputed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingWithSlot embeds Booking and adds slot timing fields so the
// lifecycle checks don't need a second lookup.
type BookingWithSlot struct {
	Booking
	HostAddress      string    `json:"host_address"`
	StartTime        time.Time `json:"start_time"`
	DurationMins     int       `json:"duration_mins"`
	GraceMins        int       `json:"grace_mins"`
	MinOverlapMins   int       `json:"min_overlap_mins"`
	CancelCutoffMins int       `json:"cancel_cutoff_mins"`
}

// SessionEnd returns the scheduled end of the session.
func (b *BookingWithSlot) SessionEnd() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMins) * time.Minute)
}

// AttestCompletedDeadline bounds how long after session end the oracle may
// still attest a completed outcome.
const AttestCompletedDeadline = 2 * time.Hour

// AttestWindow returns the closed interval in which the oracle may attest
// the given outcome. A no-show is only observable once the grace period has
// elapsed, and is stale once a full session length has passed beyond it; a
// completed session needs at least the minimum overlap behind it. ok is
// false for outcomes the oracle may not attest at all.
func (b *BookingWithSlot) AttestWindow(outcome string) (from, until time.Time, ok bool) {
	switch outcome {
	case OutcomeNoShowHost, OutcomeNoShowGuest:
		from = b.StartTime.Add(time.Duration(b.GraceMins) * time.Minute)
		until = from.Add(time.Duration(b.DurationMins) * time.Minute)
		return from, until, true
	case OutcomeCompleted:
		from = b.StartTime.Add(time.Duration(b.MinOverlapMins) * time.Minute)
		until = b.SessionEnd().Add(AttestCompletedDeadline)
		return from, until, true
	}
	return time.Time{}, time.Time{}, false
}
