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

// LedgerView is the GET /ledger shape: both sides of the books plus what is
// queued to leave.
type LedgerView struct {
	TotalHeldNano      int64     `json:"total_held_nano"`
	CustodyBalanceNano int64     `json:"custody_balance_nano"`
	PendingPayoutsNano int64     `json:"pending_payouts_nano"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type LedgerService struct {
	pool       *pgxpool.Pool
	ledgerRepo *repositories.LedgerRepo
	payoutRepo *repositories.PayoutRepo
	paramsRepo *repositories.ParamsRepo
	auditRepo  *repositories.AuditRepo
	publisher  events.Publisher
	log        *zap.Logger
}

func NewLedgerService(
	pool *pgxpool.Pool,
	ledgerRepo *repositories.LedgerRepo,
	payoutRepo *repositories.PayoutRepo,
	paramsRepo *repositories.ParamsRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{
		pool:       pool,
		ledgerRepo: ledgerRepo,
		payoutRepo: payoutRepo,
		paramsRepo: paramsRepo,
		auditRepo:  auditRepo,
		publisher:  publisher,
		log:        log,
	}
}

func (s *LedgerService) Get(ctx context.Context) (*LedgerView, error) {
	l, err := s.ledgerRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.payoutRepo.PendingTotal(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerView{
		TotalHeldNano:      l.TotalHeldNano,
		CustodyBalanceNano: l.CustodyBalanceNano,
		PendingPayoutsNano: pending,
		UpdatedAt:          l.UpdatedAt,
	}, nil
}

// RecordDeposit credits an indexed incoming transfer. Re-indexing the same
// tx_lt is a no-op, so the indexer can safely replay from its cursor.
func (s *LedgerService) RecordDeposit(ctx context.Context, d *models.Deposit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted, err := s.ledgerRepo.WithTx(tx).CreateDeposit(ctx, d)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	if err := s.ledgerRepo.WithTx(tx).AddCustody(ctx, d.AmountNano); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.log.Info("deposit credited",
		zap.Int64("tx_lt", d.TxLT),
		zap.String("from", d.FromAddress),
		zap.Int64("amount_nano", d.AmountNano),
	)
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventPaymentReceived,
		Payload: map[string]any{
			"from":        d.FromAddress,
			"amount_nano": d.AmountNano,
			"memo":        d.Memo,
		},
	})
	return nil
}

// MarkPayoutSent records the on-chain send and debits custody by exactly the
// sent amount. The actual transfer happens outside the engine; only the
// owner may confirm one.
func (s *LedgerService) MarkPayoutSent(ctx context.Context, caller string, payoutID uuid.UUID, txHash string) error {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return err
	}
	if caller != params.OwnerAddress {
		return ErrForbidden
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	amount, flipped, err := s.payoutRepo.WithTx(tx).MarkSent(ctx, payoutID, txHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if !flipped {
		return fmt.Errorf("payout %s is not pending", payoutID)
	}
	if err := s.ledgerRepo.WithTx(tx).AddCustody(ctx, -amount); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, &caller, "owner", "payout_sent", "payout", &payoutID,
		map[string]any{"amount_nano": amount, "tx_hash": txHash})
	return nil
}

func (s *LedgerService) ListPendingPayouts(ctx context.Context, limit int) ([]models.Payout, error) {
	return s.payoutRepo.ListPending(ctx, limit)
}

// Sweep moves any custody surplus over total held and pending payouts to
// the treasury. Anyone may call it: surplus is by definition money the
// engine owes nobody, so the only possible destination is the treasury, and
// a zero or negative surplus is simply nothing to sweep.
func (s *LedgerService) Sweep(ctx context.Context, caller string) (*models.Payout, error) {
	params, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	l, err := s.ledgerRepo.WithTx(tx).GetForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.payoutRepo.WithTx(tx).PendingTotal(ctx)
	if err != nil {
		return nil, err
	}
	surplus := l.CustodyBalanceNano - l.TotalHeldNano - pending
	if surplus <= 0 {
		return nil, fmt.Errorf("no surplus to sweep (custody %d, held %d, pending %d)",
			l.CustodyBalanceNano, l.TotalHeldNano, pending)
	}

	payout, err := s.payoutRepo.WithTx(tx).Create(ctx, params.TreasuryAddress, surplus,
		models.PayoutReasonSweep, "ledger", nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &caller, "user", "surplus_swept", "payout", &payout.ID,
		map[string]any{"amount_nano": surplus})
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type: events.EventSwept,
		Payload: map[string]any{
			"amount_nano": surplus,
			"treasury":    params.TreasuryAddress,
		},
	})

	return payout, nil
}
