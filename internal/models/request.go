package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Request statuses
const (
	RequestStatusOpen      = "open"
	RequestStatusCancelled = "cancelled"
	RequestStatusAccepted  = "accepted"
)

var ValidRequestTransitions = map[string][]string{
	RequestStatusOpen:      {RequestStatusCancelled, RequestStatusAccepted},
	RequestStatusCancelled: {},
	RequestStatusAccepted:  {},
}

func IsValidRequestTransition(from, to string) bool {
	allowed, ok := ValidRequestTransitions[from]
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

// Request is a guest's flexible-time funded bid. A host accepting it
// converts it into a slot + booking in one transaction; the request itself
// becomes immutable history.
type Request struct {
	ID           uuid.UUID `json:"id"`
	GuestAddress string    `json:"guest_address"`
	HostAddress  *string   `json:"host_address,omitempty"` // unset = any host may accept
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	DurationMins int       `json:"duration_mins"`
	OfferNano    int64     `json:"offer_nano"`
	ExpiresAt    time.Time `json:"expires_at"`
	Status       string    `json:"status"`

	// Acceptance record
	AcceptedSlotID    *uuid.UUID `json:"accepted_slot_id,omitempty"`
	AcceptedBookingID *uuid.UUID `json:"accepted_booking_id,omitempty"`
	AcceptedBy        *string    `json:"accepted_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckStart validates a host-chosen session start: the full session must
// fit inside the requested window, and the start must land before the bid
// expires. An accepted bid never schedules a session its guest stopped
// waiting for.
func (r *Request) CheckStart(start time.Time) error {
	sessionEnd := start.Add(time.Duration(r.DurationMins) * time.Minute)
	if start.Before(r.WindowStart) || sessionEnd.After(r.WindowEnd) {
		return fmt.Errorf("chosen start does not fit the requested window")
	}
	if !start.Before(r.ExpiresAt) {
		return fmt.Errorf("chosen start is at or past the request expiry")
	}
	return nil
}
