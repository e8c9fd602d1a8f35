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
	"go.uber.org/zap"
)

// SlotInput is the host-supplied shape of a new slot. Price is never part of
// it; slots always snapshot the host's published base price.
type SlotInput struct {
	StartTime        time.Time
	DurationMins     int
	GraceMins        int
	MinOverlapMins   int
	CancelCutoffMins int
}

type SlotService struct {
	pool       *pgxpool.Pool
	hostRepo   *repositories.HostRepo
	slotRepo   *repositories.SlotRepo
	paramsRepo *repositories.ParamsRepo
	auditRepo  *repositories.AuditRepo
	publisher  events.Publisher
	locks      *KeyLock
	log        *zap.Logger
}

func NewSlotService(
	pool *pgxpool.Pool,
	hostRepo *repositories.HostRepo,
	slotRepo *repositories.SlotRepo,
	paramsRepo *repositories.ParamsRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	locks *KeyLock,
	log *zap.Logger,
) *SlotService {
	return &SlotService{
		pool:       pool,
		hostRepo:   hostRepo,
		slotRepo:   slotRepo,
		paramsRepo: paramsRepo,
		auditRepo:  auditRepo,
		publisher:  publisher,
		locks:      locks,
		log:        log,
	}
}

func (s *SlotService) SetBasePrice(ctx context.Context, host string, priceNano int64) (*models.HostListing, error) {
	if priceNano <= 0 {
		return nil, fmt.Errorf("base price must be positive, got %d", priceNano)
	}

	listing, err := s.hostRepo.SetBasePrice(ctx, host, priceNano)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &host, "user", "price_set", "host_listing", nil,
		map[string]any{"price_nano": priceNano})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventPriceSet,
		Payload: map[string]any{
			"host_address": host,
			"price_nano":   priceNano,
		},
	})

	return listing, nil
}

func (s *SlotService) GetListing(ctx context.Context, host string) (*models.HostListing, error) {
	return s.hostRepo.GetListing(ctx, host)
}

// validateShape checks the host-controlled timing fields of a slot.
func validateShape(in SlotInput, minLead time.Duration, now time.Time) error {
	if in.DurationMins < models.SlotMinDurationMins || in.DurationMins > models.SlotMaxDurationMins {
		return fmt.Errorf("duration must be in [%d, %d] minutes, got %d",
			models.SlotMinDurationMins, models.SlotMaxDurationMins, in.DurationMins)
	}
	if in.GraceMins < 0 {
		return fmt.Errorf("grace must be non-negative, got %d", in.GraceMins)
	}
	if in.MinOverlapMins < 0 || in.MinOverlapMins > in.DurationMins {
		return fmt.Errorf("min overlap must be in [0, duration], got %d", in.MinOverlapMins)
	}
	if in.CancelCutoffMins < 0 || in.CancelCutoffMins > models.SlotMaxCancelCutoffMins {
		return fmt.Errorf("cancel cutoff must be in [0, %d] minutes, got %d",
			models.SlotMaxCancelCutoffMins, in.CancelCutoffMins)
	}
	if in.StartTime.Before(now.Add(minLead)) {
		return fmt.Errorf("start time must be at least %s in the future", minLead)
	}
	return nil
}

func (s *SlotService) CreateSlot(ctx context.Context, host string, in SlotInput) (*models.Slot, error) {
	slots, err := s.CreateSlotsBatch(ctx, host, []SlotInput{in})
	if err != nil {
		return nil, err
	}
	return &slots[0], nil
}

// CreateSlotsBatch creates up to SlotMaxBatchSize slots in one transaction
// with a single price snapshot. Any invalid or overlapping item rejects the
// whole batch.
func (s *SlotService) CreateSlotsBatch(ctx context.Context, host string, inputs []SlotInput) ([]models.Slot, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	if len(inputs) > models.SlotMaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum %d", len(inputs), models.SlotMaxBatchSize)
	}

	listing, err := s.hostRepo.GetListing(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("no base price published: %w", err)
	}
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i, in := range inputs {
		if err := validateShape(in, params.MinLeadTime(), now); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		// Reject overlaps inside the batch itself; the DB check below only
		// sees already-committed slots.
		for j := 0; j < i; j++ {
			if overlaps(inputs[i], inputs[j]) {
				return nil, fmt.Errorf("slot %d overlaps slot %d in batch", i, j)
			}
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	slotRepo := s.slotRepo.WithTx(tx)
	created := make([]models.Slot, 0, len(inputs))
	for i, in := range inputs {
		end := in.StartTime.Add(time.Duration(in.DurationMins) * time.Minute)
		conflict, err := slotRepo.HasOverlap(ctx, host, in.StartTime, end)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, fmt.Errorf("slot %d overlaps an existing slot", i)
		}

		slot, err := slotRepo.Create(ctx, &models.Slot{
			HostAddress:      host,
			StartTime:        in.StartTime,
			DurationMins:     in.DurationMins,
			PriceNano:        listing.BasePriceNano,
			GraceMins:        in.GraceMins,
			MinOverlapMins:   in.MinOverlapMins,
			CancelCutoffMins: in.CancelCutoffMins,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *slot)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for i := range created {
		slot := &created[i]
		_ = s.auditRepo.Log(ctx, &host, "user", "slot_created", "slot", &slot.ID,
			map[string]any{"start_time": slot.StartTime, "price_nano": slot.PriceNano})
		_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
			Type: events.EventSlotCreated,
			Payload: map[string]any{
				"slot_id":      slot.ID.String(),
				"host_address": host,
				"start_time":   slot.StartTime,
				"price_nano":   slot.PriceNano,
			},
		})
	}

	return created, nil
}

func overlaps(a, b SlotInput) bool {
	aEnd := a.StartTime.Add(time.Duration(a.DurationMins) * time.Minute)
	bEnd := b.StartTime.Add(time.Duration(b.DurationMins) * time.Minute)
	return a.StartTime.Before(bEnd) && b.StartTime.Before(aEnd)
}

func (s *SlotService) GetSlot(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return s.slotRepo.GetByID(ctx, id)
}

func (s *SlotService) ListOpenSlots(ctx context.Context, limit, offset int) ([]models.Slot, error) {
	return s.slotRepo.ListOpen(ctx, limit, offset)
}

func (s *SlotService) ListHostSlots(ctx context.Context, host, status string, limit, offset int) ([]models.Slot, error) {
	return s.slotRepo.ListByHost(ctx, host, status, limit, offset)
}

// CancelSlot withdraws an unbooked slot. Booked slots are cancelled through
// the booking lifecycle so the escrow is settled alongside.
func (s *SlotService) CancelSlot(ctx context.Context, host string, slotID uuid.UUID) (*models.Slot, error) {
	key := "slot:" + slotID.String()
	if !s.locks.TryLock(key) {
		return nil, ErrOperationInProgress
	}
	defer s.locks.Unlock(key)

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
	if slot.HostAddress != host {
		return nil, ErrForbidden
	}
	if slot.Status != models.SlotStatusOpen {
		return nil, fmt.Errorf("slot is %s, only open slots can be cancelled directly", slot.Status)
	}

	if err := slotRepo.UpdateStatus(ctx, slotID, models.SlotStatusCancelled, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	slot.Status = models.SlotStatusCancelled

	_ = s.auditRepo.Log(ctx, &host, "user", "slot_cancelled", "slot", &slotID, nil)
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSlotCancelled,
		Payload: map[string]any{
			"slot_id":      slotID.String(),
			"host_address": host,
		},
	})

	return slot, nil
}
