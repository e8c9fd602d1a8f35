package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger is the engine's single-row custody account. TotalHeldNano is every
// nanoTON the engine currently owes to someone (open bookings, open
// requests, active dispute bonds). CustodyBalanceNano is what the hot wallet
// physically holds, credited by the indexer and debited as payouts are sent.
// Solvency requires custody >= total held at all times.
type Ledger struct {
	TotalHeldNano      int64     `json:"total_held_nano"`
	CustodyBalanceNano int64     `json:"custody_balance_nano"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Deposit is an incoming hot-wallet transfer observed by the indexer.
type Deposit struct {
	ID          uuid.UUID `json:"id"`
	TxLT        int64     `json:"tx_lt"`
	FromAddress string    `json:"from_address"`
	AmountNano  int64     `json:"amount_nano"`
	Memo        string    `json:"memo"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payout statuses
const (
	PayoutStatusPendingSend = "pending_send"
	PayoutStatusSent        = "sent"
)

// Payout reasons
const (
	PayoutReasonSettlementHost     = "settlement_host"
	PayoutReasonSettlementTreasury = "settlement_treasury"
	PayoutReasonRefundGuest        = "refund_guest"
	PayoutReasonBondReturn         = "bond_return"
	PayoutReasonBondForfeit        = "bond_forfeit"
	PayoutReasonSweep              = "sweep"
)

// Payout is an owed outgoing transfer. Rows are inserted atomically inside
// settlement transactions; the hot-wallet signer performs the actual send
// and marks them sent.
type Payout struct {
	ID               uuid.UUID  `json:"id"`
	RecipientAddress string     `json:"recipient_address"`
	AmountNano       int64      `json:"amount_nano"`
	Reason           string     `json:"reason"`
	EntityType       string     `json:"entity_type"` // booking/request/ledger
	EntityID         *uuid.UUID `json:"entity_id,omitempty"`
	Status           string     `json:"status"`
	TxHash           *string    `json:"tx_hash,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}
