package dto

import "time"

// Auth

type WalletAuthRequest struct {
	Address string      `json:"address"` // raw form: workchain:hex
	Proof   WalletProof `json:"proof"`
	PubKey  string      `json:"public_key"` // hex ed25519
}

type WalletProof struct {
	Timestamp int64  `json:"timestamp"`
	DomainLen int    `json:"domain_len"`
	DomainVal string `json:"domain_val"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"` // hex
}

// Hosts

type SetPriceRequest struct {
	PriceNano int64 `json:"price_nano"`
}

// Slots

type SlotItem struct {
	StartTime        time.Time `json:"start_time"`
	DurationMins     int       `json:"duration_mins"`
	GraceMins        int       `json:"grace_mins"`
	MinOverlapMins   int       `json:"min_overlap_mins"`
	CancelCutoffMins int       `json:"cancel_cutoff_mins"`
}

type CreateSlotRequest struct {
	SlotItem
}

type CreateSlotsBatchRequest struct {
	Slots []SlotItem `json:"slots"`
}

type BookSlotRequest struct {
	PaymentNano int64 `json:"payment_nano"`
}

// Bookings

type AttestRequest struct {
	Outcome    string  `json:"outcome"`
	MetricsRef *string `json:"metrics_ref,omitempty"`
}

type ChallengeRequest struct {
	BondNano int64 `json:"bond_nano"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome"`
}

// Requests

type CreateRequestRequest struct {
	HostAddress  *string   `json:"host_address,omitempty"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	DurationMins int       `json:"duration_mins"`
	OfferNano    int64     `json:"offer_nano"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AcceptRequestRequest struct {
	StartTime        time.Time `json:"start_time"`
	GraceMins        int       `json:"grace_mins"`
	MinOverlapMins   int       `json:"min_overlap_mins"`
	CancelCutoffMins int       `json:"cancel_cutoff_mins"`
}

// Ledger

type MarkPayoutSentRequest struct {
	TxHash string `json:"tx_hash"`
}

// Admin

type UpdateParamsRequest struct {
	OwnerAddress         string `json:"owner_address"`
	OracleAddress        string `json:"oracle_address"`
	TreasuryAddress      string `json:"treasury_address"`
	PlatformFeeBPS       int    `json:"platform_fee_bps"`
	LateCancelPenaltyBPS int    `json:"late_cancel_penalty_bps"`
	ChallengeWindowSecs  int    `json:"challenge_window_secs"`
	NoAttestBufferSecs   int    `json:"no_attest_buffer_secs"`
	DisputeTimeoutSecs   int    `json:"dispute_timeout_secs"`
	DisputeBondNano      int64  `json:"dispute_bond_nano"`
	MinLeadTimeMins      int    `json:"min_lead_time_mins"`
}
