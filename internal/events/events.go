package events

import "context"

// Stream every engine transition is published on. External indexers build
// their query views (open slots per host, pending bookings per guest) from
// this stream; the engine itself only serves single-id lookups.
const StreamSession = "events:session"

// Event types, one per state transition.
const (
	EventPriceSet          = "price_set"
	EventSlotCreated       = "slot_created"
	EventSlotCancelled     = "slot_cancelled"
	EventSlotBooked        = "slot_booked"
	EventBookingCancelled  = "booking_cancelled"
	EventBookingAttested   = "booking_attested"
	EventBookingClaimed    = "booking_claimed_unattested"
	EventBookingChallenged = "booking_challenged"
	EventDisputeResolved   = "dispute_resolved"
	EventBookingFinalized  = "booking_finalized"
	EventRequestCreated    = "request_created"
	EventRequestCancelled  = "request_cancelled"
	EventRequestAccepted   = "request_accepted"
	EventSwept             = "swept"
	EventPaymentReceived   = "payment_received"
	EventParamsUpdated     = "params_updated"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
