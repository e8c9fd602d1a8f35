package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/events"
	"github.com/techno-hippies/heaven-sessions/internal/models"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"go.uber.org/zap"
)

// RequestInput is a guest's flexible-time bid.
type RequestInput struct {
	HostAddress  *string // nil = any host may accept
	WindowStart  time.Time
	WindowEnd    time.Time
	DurationMins int
	OfferNano    int64
	ExpiresAt    time.Time
}

type RequestService struct {
	pool        *pgxpool.Pool
	requestRepo *repositories.RequestRepo
	hostRepo    *repositories.HostRepo
	slotRepo    *repositories.SlotRepo
	bookingRepo *repositories.BookingRepo
	paramsRepo  *repositories.ParamsRepo
	ledgerRepo  *repositories.LedgerRepo
	payoutRepo  *repositories.PayoutRepo
	auditRepo   *repositories.AuditRepo
	publisher   events.Publisher
	locks       *KeyLock
	log         *zap.Logger
}

func NewRequestService(
	pool *pgxpool.Pool,
	requestRepo *repositories.RequestRepo,
	hostRepo *repositories.HostRepo,
	slotRepo *repositories.SlotRepo,
	bookingRepo *repositories.BookingRepo,
	paramsRepo *repositories.ParamsRepo,
	ledgerRepo *repositories.LedgerRepo,
	payoutRepo *repositories.PayoutRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	locks *KeyLock,
	log *zap.Logger,
) *RequestService {
	return &RequestService{
		pool:        pool,
		requestRepo: requestRepo,
		hostRepo:    hostRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		paramsRepo:  paramsRepo,
		ledgerRepo:  ledgerRepo,
		payoutRepo:  payoutRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		locks:       locks,
		log:         log,
	}
}

func (s *RequestService) GetRequest(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *RequestService) ListOpen(ctx context.Context, host string, limit, offset int) ([]models.Request, error) {
	return s.requestRepo.ListOpen(ctx, host, time.Now().UTC(), limit, offset)
}

func (s *RequestService) ListByGuest(ctx context.Context, guest string, limit, offset int) ([]models.Request, error) {
	return s.requestRepo.ListByGuest(ctx, guest, limit, offset)
}

// CreateRequest escrows the offer against a flexible window. Targeted
// requests must clear the target host's published base price, if any.
func (s *RequestService) CreateRequest(ctx context.Context, guest string, in RequestInput) (*models.Request, error) {
	now := time.Now().UTC()
	if !in.WindowStart.Before(in.WindowEnd) {
		return nil, fmt.Errorf("window start must precede window end")
	}
	if in.DurationMins < models.SlotMinDurationMins || in.DurationMins > models.SlotMaxDurationMins {
		return nil, fmt.Errorf("duration must be in [%d, %d] minutes, got %d",
			models.SlotMinDurationMins, models.SlotMaxDurationMins, in.DurationMins)
	}
	if in.WindowEnd.Sub(in.WindowStart) < time.Duration(in.DurationMins)*time.Minute {
		return nil, fmt.Errorf("window shorter than the requested duration")
	}
	if !in.ExpiresAt.After(now) || in.ExpiresAt.After(in.WindowEnd) {
		return nil, fmt.Errorf("expiry must fall in (now, window end]")
	}
	if in.OfferNano <= 0 {
		return nil, fmt.Errorf("offer must be positive, got %d", in.OfferNano)
	}
	if in.HostAddress != nil {
		if *in.HostAddress == guest {
			return nil, fmt.Errorf("cannot target a request at yourself")
		}
		listing, err := s.hostRepo.GetListing(ctx, *in.HostAddress)
		switch {
		case err == nil:
			if in.OfferNano < listing.BasePriceNano {
				return nil, fmt.Errorf("offer %d below host base price %d", in.OfferNano, listing.BasePriceNano)
			}
		case errors.Is(err, pgx.ErrNoRows):
			// No published price; any offer stands.
		default:
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	req, err := s.requestRepo.WithTx(tx).Create(ctx, &models.Request{
		GuestAddress: guest,
		HostAddress:  in.HostAddress,
		WindowStart:  in.WindowStart,
		WindowEnd:    in.WindowEnd,
		DurationMins: in.DurationMins,
		OfferNano:    in.OfferNano,
		ExpiresAt:    in.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, in.OfferNano); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &guest, "user", "request_created", "request", &req.ID,
		map[string]any{"offer_nano": in.OfferNano})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventRequestCreated,
		Payload: map[string]any{
			"request_id": req.ID.String(),
			"guest":      guest,
			"offer_nano": in.OfferNano,
		},
	})

	return req, nil
}

// CancelRequest refunds an open request. Works after expiry too; expiry only
// stops acceptance, never the guest's money coming back.
func (s *RequestService) CancelRequest(ctx context.Context, guest string, id uuid.UUID) (*models.Request, error) {
	return s.closeRequest(ctx, &guest, id, "request_cancelled")
}

func (s *RequestService) closeRequest(ctx context.Context, guest *string, id uuid.UUID, action string) (*models.Request, error) {
	key := "request:" + id.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	requestRepo := s.requestRepo.WithTx(tx)
	req, err := requestRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if guest != nil && req.GuestAddress != *guest {
		return nil, ErrForbidden
	}
	if req.Status != models.RequestStatusOpen {
		return nil, fmt.Errorf("request is %s, only open requests can be cancelled", req.Status)
	}

	if _, err := s.payoutRepo.WithTx(tx).Create(ctx, req.GuestAddress, req.OfferNano,
		models.PayoutReasonRefundGuest, "request", &req.ID); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.WithTx(tx).AddHeld(ctx, -req.OfferNano); err != nil {
		return nil, err
	}
	if err := requestRepo.MarkCancelled(ctx, req.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusCancelled

	actorType := "user"
	if guest == nil {
		actorType = "system"
	}
	_ = s.auditRepo.Log(ctx, guest, actorType, action, "request", &req.ID,
		map[string]any{"offer_nano": req.OfferNano})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventRequestCancelled,
		Payload: map[string]any{
			"request_id": req.ID.String(),
			"guest":      req.GuestAddress,
		},
	})

	return req, nil
}

// AcceptRequest converts an open request into a slot and a booking funded
// from the escrowed offer, all in one transaction. The slot is priced at the
// host's base price when one is published, else at the offer; the booking
// always carries the full offer.
func (s *RequestService) AcceptRequest(ctx context.Context, host string, id uuid.UUID, chosenStart time.Time, shape SlotInput) (*models.Request, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := "request:" + id.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	requestRepo := s.requestRepo.WithTx(tx)
	req, err := requestRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if req.Status != models.RequestStatusOpen {
		return nil, fmt.Errorf("request is %s, not acceptable", req.Status)
	}
	if !now.Before(req.ExpiresAt) {
		return nil, fmt.Errorf("request expired at %s", req.ExpiresAt.Format(time.RFC3339))
	}
	if req.HostAddress != nil && *req.HostAddress != host {
		return nil, ErrForbidden
	}
	if req.GuestAddress == host {
		return nil, fmt.Errorf("cannot accept your own request")
	}

	priceNano := req.OfferNano
	listing, err := s.hostRepo.GetListing(ctx, host)
	switch {
	case err == nil:
		if req.OfferNano < listing.BasePriceNano {
			return nil, fmt.Errorf("offer %d below your base price %d", req.OfferNano, listing.BasePriceNano)
		}
		priceNano = listing.BasePriceNano
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, err
	}

	if err := req.CheckStart(chosenStart); err != nil {
		return nil, err
	}
	sessionEnd := chosenStart.Add(time.Duration(req.DurationMins) * time.Minute)
	shape.StartTime = chosenStart
	shape.DurationMins = req.DurationMins
	if err := validateShape(shape, params.MinLeadTime(), now); err != nil {
		return nil, err
	}

	slotRepo := s.slotRepo.WithTx(tx)
	conflict, err := slotRepo.HasOverlap(ctx, host, chosenStart, sessionEnd)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fmt.Errorf("chosen start overlaps one of your existing slots")
	}

	slot, err := slotRepo.Create(ctx, &models.Slot{
		HostAddress:      host,
		StartTime:        chosenStart,
		DurationMins:     req.DurationMins,
		PriceNano:        priceNano,
		GraceMins:        shape.GraceMins,
		MinOverlapMins:   shape.MinOverlapMins,
		CancelCutoffMins: shape.CancelCutoffMins,
	})
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.WithTx(tx).Create(ctx, slot.ID, req.GuestAddress, req.OfferNano)
	if err != nil {
		return nil, err
	}
	if err := slotRepo.UpdateStatus(ctx, slot.ID, models.SlotStatusBooked, &booking.ID); err != nil {
		return nil, err
	}
	// The escrowed offer becomes the booking escrow; total held is
	// unchanged.
	if err := requestRepo.MarkAccepted(ctx, req.ID, slot.ID, booking.ID, host); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusAccepted
	req.AcceptedSlotID = &slot.ID
	req.AcceptedBookingID = &booking.ID
	req.AcceptedBy = &host

	_ = s.auditRepo.Log(ctx, &host, "user", "request_accepted", "request", &req.ID,
		map[string]any{
			"slot_id":    slot.ID.String(),
			"booking_id": booking.ID.String(),
			"start_time": chosenStart,
		})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventRequestAccepted,
		Payload: map[string]any{
			"request_id": req.ID.String(),
			"host":       host,
			"slot_id":    slot.ID.String(),
			"booking_id": booking.ID.String(),
		},
	})

	return req, nil
}

// ExpireDue refunds open requests past expiry. Run from the worker.
func (s *RequestService) ExpireDue(ctx context.Context, limit int) int {
	due, err := s.requestRepo.ListExpired(ctx, time.Now().UTC(), limit)
	if err != nil {
		s.log.Error("list expired requests", zap.Error(err))
		return 0
	}
	n := 0
	for _, req := range due {
		if _, err := s.closeRequest(ctx, nil, req.ID, "request_expired"); err != nil {
			s.log.Warn("expire request", zap.String("request_id", req.ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
