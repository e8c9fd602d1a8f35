// Package settlement maps a session outcome to a host/guest/treasury split
// of the escrowed amount. Splits are computed in integer nanoTON and always
// sum exactly to the input amount.
package settlement

import (
	"fmt"

	"github.com/techno-hippies/heaven-sessions/internal/models"
)

const bpsDenominator = 10_000

type Split struct {
	HostNano     int64 `json:"host_nano"`
	GuestNano    int64 `json:"guest_nano"`
	TreasuryNano int64 `json:"treasury_nano"`
}

// Total returns the sum of the split's parts.
func (s Split) Total() int64 {
	return s.HostNano + s.GuestNano + s.TreasuryNano
}

// Compute returns the settlement split for a finalized booking.
//
// completed / no_show_guest / cancelled_by_guest: platform fee off the top,
// remainder to the host. no_show_host / cancelled_by_host: full refund to
// the guest, no fee. cancelled_by_guest only reaches finalization on the
// late path; early guest cancellation refunds directly and never settles.
func Compute(outcome string, amountNano int64, feeBPS int) (Split, error) {
	if amountNano < 0 {
		return Split{}, fmt.Errorf("settlement: negative amount %d", amountNano)
	}
	if feeBPS < 0 || feeBPS > bpsDenominator {
		return Split{}, fmt.Errorf("settlement: fee bps out of range: %d", feeBPS)
	}

	switch outcome {
	case models.OutcomeCompleted, models.OutcomeNoShowGuest, models.OutcomeCancelledByGuest:
		fee := amountNano * int64(feeBPS) / bpsDenominator
		return Split{HostNano: amountNano - fee, TreasuryNano: fee}, nil
	case models.OutcomeNoShowHost, models.OutcomeCancelledByHost:
		return Split{GuestNano: amountNano}, nil
	default:
		return Split{}, fmt.Errorf("settlement: unknown outcome %q", outcome)
	}
}

// LateCancel splits a late guest cancellation: the penalty fraction goes to
// treasury, the platform fee is then taken from the remainder, and the rest
// goes to the host. The guest receives nothing.
func LateCancel(amountNano int64, penaltyBPS, feeBPS int) (Split, error) {
	if amountNano < 0 {
		return Split{}, fmt.Errorf("settlement: negative amount %d", amountNano)
	}
	if penaltyBPS < 0 || penaltyBPS > bpsDenominator {
		return Split{}, fmt.Errorf("settlement: penalty bps out of range: %d", penaltyBPS)
	}
	if feeBPS < 0 || feeBPS > bpsDenominator {
		return Split{}, fmt.Errorf("settlement: fee bps out of range: %d", feeBPS)
	}

	penalty := amountNano * int64(penaltyBPS) / bpsDenominator
	remainder := amountNano - penalty
	fee := remainder * int64(feeBPS) / bpsDenominator
	return Split{
		HostNano:     remainder - fee,
		TreasuryNano: penalty + fee,
	}, nil
}
