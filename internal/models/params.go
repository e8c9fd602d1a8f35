package models

import "time"

// EngineParams is the engine's single-row mutable configuration: role
// addresses and settlement parameters. It is bootstrapped from env on first
// boot and thereafter mutated only through the owner-checked admin setters.
type EngineParams struct {
	OwnerAddress    string `json:"owner_address"`
	OracleAddress   string `json:"oracle_address"`
	TreasuryAddress string `json:"treasury_address"`

	PlatformFeeBPS       int   `json:"platform_fee_bps"`
	LateCancelPenaltyBPS int   `json:"late_cancel_penalty_bps"`
	ChallengeWindowSecs  int   `json:"challenge_window_secs"`
	NoAttestBufferSecs   int   `json:"no_attest_buffer_secs"`
	DisputeTimeoutSecs   int   `json:"dispute_timeout_secs"`
	DisputeBondNano      int64 `json:"dispute_bond_nano"`
	MinLeadTimeMins      int   `json:"min_lead_time_mins"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (p *EngineParams) ChallengeWindow() time.Duration {
	return time.Duration(p.ChallengeWindowSecs) * time.Second
}

func (p *EngineParams) NoAttestBuffer() time.Duration {
	return time.Duration(p.NoAttestBufferSecs) * time.Second
}

func (p *EngineParams) DisputeTimeout() time.Duration {
	return time.Duration(p.DisputeTimeoutSecs) * time.Second
}

func (p *EngineParams) MinLeadTime() time.Duration {
	return time.Duration(p.MinLeadTimeMins) * time.Minute
}
