package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/events"
	"github.com/techno-hippies/heaven-sessions/internal/models"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"github.com/techno-hippies/heaven-sessions/internal/settlement"
	"go.uber.org/zap"
)

type BookingService struct {
	pool        *pgxpool.Pool
	bookingRepo *repositories.BookingRepo
	slotRepo    *repositories.SlotRepo
	paramsRepo  *repositories.ParamsRepo
	ledgerRepo  *repositories.LedgerRepo
	payoutRepo  *repositories.PayoutRepo
	auditRepo   *repositories.AuditRepo
	publisher   events.Publisher
	locks       *KeyLock
	log         *zap.Logger
}

func NewBookingService(
	pool *pgxpool.Pool,
	bookingRepo *repositories.BookingRepo,
	slotRepo *repositories.SlotRepo,
	paramsRepo *repositories.ParamsRepo,
	ledgerRepo *repositories.LedgerRepo,
	payoutRepo *repositories.PayoutRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	locks *KeyLock,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		pool:        pool,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		paramsRepo:  paramsRepo,
		ledgerRepo:  ledgerRepo,
		payoutRepo:  payoutRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		locks:       locks,
		log:         log,
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.BookingWithSlot, error) {
	return s.bookingRepo.GetWithSlot(ctx, id)
}

func (s *BookingService) ListByGuest(ctx context.Context, guest string, limit, offset int) ([]models.BookingWithSlot, error) {
	return s.bookingRepo.ListByGuest(ctx, guest, limit, offset)
}

func (s *BookingService) ListByHost(ctx context.Context, host string, limit, offset int) ([]models.BookingWithSlot, error) {
	return s.bookingRepo.ListByHost(ctx, host, limit, offset)
}

func (s *BookingService) PayoutsForBooking(ctx context.Context, id uuid.UUID) ([]models.Payout, error) {
	return s.payoutRepo.ListByEntity(ctx, "booking", id)
}

// payoutNonzero inserts a payout row unless the amount is zero. A failed
// insert aborts the surrounding transaction, so money never moves without
// its payout record.
func payoutNonzero(ctx context.Context, repo *repositories.PayoutRepo, recipient string, amount int64, reason string, bookingID uuid.UUID) error {
	if amount == 0 {
		return nil
	}
	_, err := repo.Create(ctx, recipient, amount, reason, "booking", &bookingID)
	return err
}

// Book escrows the declared payment against an open slot. The payment must
// equal the snapshotted price exactly; how it physically reaches the hot
// wallet is the indexer's side of the books.
func (s *BookingService) Book(ctx context.Context, guest string, slotID uuid.UUID, paymentNano int64) (*models.Booking, error) {
	key := "slot:" + slotID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	slotRepo := s.slotRepo.WithTx(tx)
	slot, err := slotRepo.GetByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != models.SlotStatusOpen || slot.BookingID != nil {
		return nil, fmt.Errorf("slot is not open for booking")
	}
	if slot.HostAddress == guest {
		return nil, fmt.Errorf("host cannot book their own slot")
	}
	now := time.Now().UTC()
	if slot.StartTime.Before(now.Add(params.MinLeadTime())) {
		return nil, fmt.Errorf("slot starts too soon to book")
	}
	if paymentNano != slot.PriceNano {
		return nil, fmt.Errorf("payment %d does not match slot price %d exactly", paymentNano, slot.PriceNano)
	}

	booking, err := s.bookingRepo.WithTx(tx).Create(ctx, slotID, guest, paymentNano)
	if err != nil {
		return nil, err
	}
	if err := slotRepo.UpdateStatus(ctx, slotID, models.SlotStatusBooked, &booking.ID); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, paymentNano); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &guest, "user", "booking_created", "booking", &booking.ID,
		map[string]any{"slot_id": slotID.String(), "amount_nano": paymentNano})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSlotBooked,
		Payload: map[string]any{
			"slot_id":     slotID.String(),
			"booking_id":  booking.ID.String(),
			"guest":       guest,
			"host":        slot.HostAddress,
			"amount_nano": paymentNano,
		},
	})

	return booking, nil
}

// CancelAsGuest cancels before the session starts. At or before the cutoff
// the guest gets a full refund and the slot reopens; after the cutoff the
// escrow settles immediately with the late-cancel split and the slot is done.
func (s *BookingService) CancelAsGuest(ctx context.Context, guest string, bookingID uuid.UUID) (*models.BookingWithSlot, error) {
	return s.cancel(ctx, guest, bookingID, false)
}

// CancelAsHost releases the guest in full at any point before the session
// starts. The slot is withdrawn, not reopened.
func (s *BookingService) CancelAsHost(ctx context.Context, host string, bookingID uuid.UUID) (*models.BookingWithSlot, error) {
	return s.cancel(ctx, host, bookingID, true)
}

func (s *BookingService) cancel(ctx context.Context, caller string, bookingID uuid.UUID, byHost bool) (*models.BookingWithSlot, error) {
	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	slotRepo := s.slotRepo.WithTx(tx)
	ledgerRepo := s.ledgerRepo.WithTx(tx)
	payoutRepo := s.payoutRepo.WithTx(tx)

	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := slotRepo.GetByIDForUpdate(ctx, b.SlotID); err != nil {
		return nil, err
	}
	if byHost && b.HostAddress != caller {
		return nil, ErrForbidden
	}
	if !byHost && b.GuestAddress != caller {
		return nil, ErrForbidden
	}
	if b.Status != models.BookingStatusBooked {
		return nil, fmt.Errorf("booking is %s, only booked sessions can be cancelled", b.Status)
	}
	now := time.Now().UTC()
	if !now.Before(b.StartTime) {
		return nil, fmt.Errorf("session already started, cancellation closed")
	}

	var (
		outcome    string
		slotStatus string
		slotLink   *uuid.UUID
		late       bool
	)
	switch {
	case byHost:
		outcome = models.OutcomeCancelledByHost
		slotStatus = models.SlotStatusCancelled
		slotLink = &b.ID
		if err := payoutNonzero(ctx, payoutRepo, b.GuestAddress, b.AmountNano, models.PayoutReasonRefundGuest, b.ID); err != nil {
			return nil, err
		}
	case !now.After(b.StartTime.Add(-time.Duration(b.CancelCutoffMins) * time.Minute)):
		// Free cancellation: the slot goes back on the market.
		outcome = models.OutcomeCancelledByGuest
		slotStatus = models.SlotStatusOpen
		slotLink = nil
		if err := payoutNonzero(ctx, payoutRepo, b.GuestAddress, b.AmountNano, models.PayoutReasonRefundGuest, b.ID); err != nil {
			return nil, err
		}
	default:
		outcome = models.OutcomeCancelledByGuest
		slotStatus = models.SlotStatusSettled
		slotLink = &b.ID
		late = true
		split, err := settlement.LateCancel(b.AmountNano, params.LateCancelPenaltyBPS, params.PlatformFeeBPS)
		if err != nil {
			return nil, err
		}
		if err := payoutNonzero(ctx, payoutRepo, b.HostAddress, split.HostNano, models.PayoutReasonSettlementHost, b.ID); err != nil {
			return nil, err
		}
		if err := payoutNonzero(ctx, payoutRepo, params.TreasuryAddress, split.TreasuryNano, models.PayoutReasonSettlementTreasury, b.ID); err != nil {
			return nil, err
		}
	}

	if err := bookingRepo.SetCancelled(ctx, b.ID, outcome); err != nil {
		return nil, err
	}
	if err := slotRepo.UpdateStatus(ctx, b.SlotID, slotStatus, slotLink); err != nil {
		return nil, err
	}
	if err := ledgerRepo.AddHeld(ctx, -b.AmountNano); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusCancelled
	b.Outcome = &outcome

	_ = s.auditRepo.Log(ctx, &caller, "user", "booking_cancelled", "booking", &b.ID,
		map[string]any{"outcome": outcome, "late": late})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventBookingCancelled,
		Payload: map[string]any{
			"booking_id": b.ID.String(),
			"slot_id":    b.SlotID.String(),
			"outcome":    outcome,
			"late":       late,
		},
	})

	return b, nil
}

// Attest records the oracle's verdict on what happened during the session
// window and opens the challenge window.
func (s *BookingService) Attest(ctx context.Context, caller string, bookingID uuid.UUID, outcome string, metricsRef *string) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if caller != params.OracleAddress {
		return nil, ErrForbidden
	}
	if !models.IsAttestableOutcome(outcome) {
		return nil, fmt.Errorf("outcome %q is not attestable", outcome)
	}

	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusBooked {
		return nil, fmt.Errorf("booking is %s, only booked sessions can be attested", b.Status)
	}

	now := time.Now().UTC()
	from, until, ok := b.AttestWindow(outcome)
	if !ok {
		return nil, fmt.Errorf("outcome %q is not attestable", outcome)
	}
	if now.Before(from) || now.After(until) {
		return nil, fmt.Errorf("%s attestation window is [%s, %s]",
			outcome, from.Format(time.RFC3339), until.Format(time.RFC3339))
	}

	finalizableAt := now.Add(params.ChallengeWindow())
	if err := bookingRepo.SetAttestation(ctx, b.ID, outcome, metricsRef, now, finalizableAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusAttested
	b.Outcome = &outcome
	b.AttestedAt = &now
	b.FinalizableAt = &finalizableAt

	_ = s.auditRepo.Log(ctx, &caller, "oracle", "booking_attested", "booking", &b.ID,
		map[string]any{"outcome": outcome})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventBookingAttested,
		Payload: map[string]any{
			"booking_id":     b.ID.String(),
			"outcome":        outcome,
			"finalizable_at": finalizableAt,
		},
	})

	return b, nil
}

// ClaimIfUnattested is the guest/host escape hatch for an oracle that never
// showed up: once the no-attest buffer passes, either party can unwind the
// escrow back to the guest.
func (s *BookingService) ClaimIfUnattested(ctx context.Context, caller string, bookingID uuid.UUID) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if caller != b.GuestAddress && caller != b.HostAddress {
		return nil, ErrForbidden
	}
	if b.Status != models.BookingStatusBooked {
		return nil, fmt.Errorf("booking is %s, nothing to claim", b.Status)
	}
	now := time.Now().UTC()
	claimableAt := b.SessionEnd().Add(params.NoAttestBuffer())
	if now.Before(claimableAt) {
		return nil, fmt.Errorf("claimable from %s", claimableAt.Format(time.RFC3339))
	}

	if err := payoutNonzero(ctx, s.payoutRepo.WithTx(tx), b.GuestAddress, b.AmountNano, models.PayoutReasonRefundGuest, b.ID); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, -b.AmountNano); err != nil {
		return nil, err
	}
	if err := bookingRepo.UpdateStatus(ctx, b.ID, models.BookingStatusFinalized); err != nil {
		return nil, err
	}
	if err := s.slotRepo.WithTx(tx).UpdateStatus(ctx, b.SlotID, models.SlotStatusCancelled, &b.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusFinalized

	_ = s.auditRepo.Log(ctx, &caller, "user", "booking_claimed_unattested", "booking", &b.ID, nil)
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventBookingClaimed,
		Payload: map[string]any{
			"booking_id": b.ID.String(),
			"guest":      b.GuestAddress,
		},
	})

	return b, nil
}

// Challenge lets either party contest an attested outcome by posting the
// dispute bond before the challenge window closes.
func (s *BookingService) Challenge(ctx context.Context, caller string, bookingID uuid.UUID, bondNano int64) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if bondNano != params.DisputeBondNano {
		return nil, fmt.Errorf("bond %d does not match required dispute bond %d exactly", bondNano, params.DisputeBondNano)
	}

	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if caller != b.GuestAddress && caller != b.HostAddress {
		return nil, ErrForbidden
	}
	if b.Status != models.BookingStatusAttested {
		return nil, fmt.Errorf("booking is %s, only attested outcomes can be challenged", b.Status)
	}
	now := time.Now().UTC()
	if b.FinalizableAt == nil || !now.Before(*b.FinalizableAt) {
		return nil, fmt.Errorf("challenge window closed")
	}

	if err := bookingRepo.SetDispute(ctx, b.ID, caller, bondNano, now); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, bondNano); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusDisputed
	b.ChallengerAddress = &caller
	b.BondNano = &bondNano
	b.DisputedAt = &now

	_ = s.auditRepo.Log(ctx, &caller, "user", "booking_challenged", "booking", &b.ID,
		map[string]any{"bond_nano": bondNano})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventBookingChallenged,
		Payload: map[string]any{
			"booking_id": b.ID.String(),
			"challenger": caller,
			"bond_nano":  bondNano,
		},
	})

	return b, nil
}

// ResolveDispute is the owner ruling on a challenged attestation. A ruling
// that overturns the attested outcome returns the bond to the challenger;
// upholding it forfeits the bond to the other party.
func (s *BookingService) ResolveDispute(ctx context.Context, caller string, bookingID uuid.UUID, finalOutcome string) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if caller != params.OwnerAddress {
		return nil, ErrForbidden
	}
	if !models.IsAttestableOutcome(finalOutcome) {
		return nil, fmt.Errorf("outcome %q is not a valid resolution", finalOutcome)
	}
	return s.resolve(ctx, &caller, "arbiter", bookingID, &finalOutcome, false)
}

// ResolveDisputeByTimeout unblocks a dispute the arbiter never ruled on:
// once the timeout passes anyone may close it, the attested outcome stands,
// and the challenger gets the bond back.
func (s *BookingService) ResolveDisputeByTimeout(ctx context.Context, bookingID uuid.UUID) (*models.BookingWithSlot, error) {
	return s.resolve(ctx, nil, "system", bookingID, nil, true)
}

func (s *BookingService) resolve(ctx context.Context, actor *string, actorType string, bookingID uuid.UUID, finalOutcome *string, byTimeout bool) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusDisputed {
		return nil, fmt.Errorf("booking is %s, no dispute to resolve", b.Status)
	}
	if b.ChallengerAddress == nil || b.BondNano == nil || b.DisputedAt == nil || b.Outcome == nil {
		return nil, fmt.Errorf("dispute fields missing on booking %s", b.ID)
	}

	now := time.Now().UTC()
	if byTimeout {
		deadline := b.DisputedAt.Add(params.DisputeTimeout())
		if now.Before(deadline) {
			return nil, fmt.Errorf("dispute timeout not reached until %s", deadline.Format(time.RFC3339))
		}
	}

	outcome := *b.Outcome
	if finalOutcome != nil {
		outcome = *finalOutcome
	}

	challenger := *b.ChallengerAddress
	bond := *b.BondNano
	payoutRepo := s.payoutRepo.WithTx(tx)
	if byTimeout || outcome != *b.Outcome {
		if err := payoutNonzero(ctx, payoutRepo, challenger, bond, models.PayoutReasonBondReturn, b.ID); err != nil {
			return nil, err
		}
	} else {
		// Upheld: the bond compensates whoever had to sit through the
		// dispute.
		counterparty := b.HostAddress
		if challenger == b.HostAddress {
			counterparty = b.GuestAddress
		}
		if err := payoutNonzero(ctx, payoutRepo, counterparty, bond, models.PayoutReasonBondForfeit, b.ID); err != nil {
			return nil, err
		}
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, -bond); err != nil {
		return nil, err
	}
	if err := bookingRepo.SetResolution(ctx, b.ID, outcome); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusResolved
	b.Outcome = &outcome
	b.FinalizableAt = &now
	b.ChallengerAddress = nil
	b.BondNano = nil
	b.DisputedAt = nil

	_ = s.auditRepo.Log(ctx, actor, actorType, "dispute_resolved", "booking", &b.ID,
		map[string]any{"outcome": outcome, "by_timeout": byTimeout})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventDisputeResolved,
		Payload: map[string]any{
			"booking_id": b.ID.String(),
			"outcome":    outcome,
			"by_timeout": byTimeout,
		},
	})

	return b, nil
}

// Finalize applies the settlement split once the challenge window (or the
// dispute) is behind the booking. Anyone may call it; it is the only exit
// that pays the escrow out.
func (s *BookingService) Finalize(ctx context.Context, bookingID uuid.UUID) (*models.BookingWithSlot, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := "booking:" + bookingID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingRepo := s.bookingRepo.WithTx(tx)
	b, err := bookingRepo.GetWithSlotForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusAttested && b.Status != models.BookingStatusResolved {
		return nil, fmt.Errorf("booking is %s, not finalizable", b.Status)
	}
	if b.Outcome == nil || b.FinalizableAt == nil {
		return nil, fmt.Errorf("booking %s has no settled outcome", b.ID)
	}
	now := time.Now().UTC()
	if now.Before(*b.FinalizableAt) {
		return nil, fmt.Errorf("finalizable from %s", b.FinalizableAt.Format(time.RFC3339))
	}

	split, err := settlement.Compute(*b.Outcome, b.AmountNano, params.PlatformFeeBPS)
	if err != nil {
		return nil, err
	}

	payoutRepo := s.payoutRepo.WithTx(tx)
	if err := payoutNonzero(ctx, payoutRepo, b.HostAddress, split.HostNano, models.PayoutReasonSettlementHost, b.ID); err != nil {
		return nil, err
	}
	if err := payoutNonzero(ctx, payoutRepo, b.GuestAddress, split.GuestNano, models.PayoutReasonRefundGuest, b.ID); err != nil {
		return nil, err
	}
	if err := payoutNonzero(ctx, payoutRepo, params.TreasuryAddress, split.TreasuryNano, models.PayoutReasonSettlementTreasury, b.ID); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, -b.AmountNano); err != nil {
		return nil, err
	}
	if err := bookingRepo.UpdateStatus(ctx, b.ID, models.BookingStatusFinalized); err != nil {
		return nil, err
	}
	if err := s.slotRepo.WithTx(tx).UpdateStatus(ctx, b.SlotID, models.SlotStatusSettled, &b.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	b.Status = models.BookingStatusFinalized

	_ = s.auditRepo.Log(ctx, nil, "system", "booking_finalized", "booking", &b.ID,
		map[string]any{
			"outcome":       *b.Outcome,
			"host_nano":     split.HostNano,
			"guest_nano":    split.GuestNano,
			"treasury_nano": split.TreasuryNano,
		})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventBookingFinalized,
		Payload: map[string]any{
			"booking_id":    b.ID.String(),
			"outcome":       *b.Outcome,
			"host_nano":     split.HostNano,
			"guest_nano":    split.GuestNano,
			"treasury_nano": split.TreasuryNano,
		},
	})

	return b, nil
}

// FinalizeDue sweeps every booking whose challenge window has lapsed.
// Per-booking failures are logged and skipped so one stuck row never blocks
// the rest.
func (s *BookingService) FinalizeDue(ctx context.Context, limit int) int {
	due, err := s.bookingRepo.ListFinalizable(ctx, time.Now().UTC(), limit)
	if err != nil {
		s.log.Error("list finalizable bookings", zap.Error(err))
		return 0
	}
	n := 0
	for _, b := range due {
		if _, err := s.Finalize(ctx, b.ID); err != nil {
			s.log.Warn("finalize booking", zap.String("booking_id", b.ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// TimeoutDisputesDue closes disputes the arbiter sat on past the timeout.
func (s *BookingService) TimeoutDisputesDue(ctx context.Context, limit int) int {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		s.log.Error("load params", zap.Error(err))
		return 0
	}
	due, err := s.bookingRepo.ListDisputesTimedOut(ctx, time.Now().UTC(), params.DisputeTimeout(), limit)
	if err != nil {
		s.log.Error("list timed-out disputes", zap.Error(err))
		return 0
	}
	n := 0
	for _, b := range due {
		if _, err := s.ResolveDisputeByTimeout(ctx, b.ID); err != nil {
			s.log.Warn("resolve dispute by timeout", zap.String("booking_id", b.ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
