package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot statuses
const (
	SlotStatusOpen      = "open"
	SlotStatusBooked    = "booked"
	SlotStatusCancelled = "cancelled"
	SlotStatusSettled   = "settled"
)

// Valid state transitions: from -> []to.
// open -> booked when a booking attaches; booked -> open when the guest
// cancels early enough that the slot can be rebooked.
var ValidSlotTransitions = map[string][]string{
	SlotStatusOpen:      {SlotStatusBooked, SlotStatusCancelled},
	SlotStatusBooked:    {SlotStatusOpen, SlotStatusCancelled, SlotStatusSettled},
	SlotStatusCancelled: {},
	SlotStatusSettled:   {},
}

func IsValidSlotTransition(from, to string) bool {
	allowed, ok := ValidSlotTransitions[from]
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

// Slot creation bounds.
const (
	SlotMinDurationMins     = 1
	SlotMaxDurationMins     = 240
	SlotMaxCancelCutoffMins = 7 * 24 * 60
	SlotMaxBatchSize        = 200
)

type Slot struct {
	ID               uuid.UUID  `json:"id"`
	HostAddress      string     `json:"host_address"`
	StartTime        time.Time  `json:"start_time"`
	DurationMins     int        `json:"duration_mins"`
	PriceNano        int64      `json:"price_nano"` // snapshot of the host's base price at creation
	GraceMins        int        `json:"grace_mins"`
	MinOverlapMins   int        `json:"min_overlap_mins"`
	CancelCutoffMins int        `json:"cancel_cutoff_mins"`
	Status           string     `json:"status"`
	BookingID        *uuid.UUID `json:"booking_id,omitempty"` // active booking link, cleared on reopen
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EndTime returns the scheduled end of the slot's window.
func (s *Slot) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMins) * time.Minute)
}

// CancelCutoff returns the latest instant at which a guest may still cancel
// for free.
func (s *Slot) CancelCutoff() time.Time {
	return s.StartTime.Add(-time.Duration(s.CancelCutoffMins) * time.Minute)
}

// HostListing is a host's published base price. Slots snapshot it at
// creation; later changes never affect existing slots.
type HostListing struct {
	Address       string    `json:"address"`
	BasePriceNano int64     `json:"base_price_nano"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
