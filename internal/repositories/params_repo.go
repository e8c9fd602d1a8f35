package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type ParamsRepo struct {
	db Querier
}

func NewParamsRepo(pool *pgxpool.Pool) *ParamsRepo {
	return &ParamsRepo{db: pool}
}

func (r *ParamsRepo) WithTx(tx pgx.Tx) *ParamsRepo {
	return &ParamsRepo{db: tx}
}

const paramsColumns = `owner_address, oracle_address, treasury_address,
	platform_fee_bps, late_cancel_penalty_bps, challenge_window_secs,
	no_attest_buffer_secs, dispute_timeout_secs, dispute_bond_nano,
	min_lead_time_mins, updated_at`

func scanParams(row pgx.Row) (*models.EngineParams, error) {
	var p models.EngineParams
	err := row.Scan(&p.OwnerAddress, &p.OracleAddress, &p.TreasuryAddress,
		&p.PlatformFeeBPS, &p.LateCancelPenaltyBPS, &p.ChallengeWindowSecs,
		&p.NoAttestBufferSecs, &p.DisputeTimeoutSecs, &p.DisputeBondNano,
		&p.MinLeadTimeMins, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParamsRepo) Get(ctx context.Context) (*models.EngineParams, error) {
	return scanParams(r.db.QueryRow(ctx,
		`SELECT ` + paramsColumns + ` FROM engine_params`))
}

// Bootstrap inserts the initial single row from env config. A later boot
// finds the row present and leaves it alone, so env changes never clobber
// admin-made updates.
func (r *ParamsRepo) Bootstrap(ctx context.Context, p *models.EngineParams) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO engine_params (singleton, owner_address, oracle_address, treasury_address,
			platform_fee_bps, late_cancel_penalty_bps, challenge_window_secs,
			no_attest_buffer_secs, dispute_timeout_secs, dispute_bond_nano, min_lead_time_mins)
		VALUES (true, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (singleton) DO NOTHING
	`, p.OwnerAddress, p.OracleAddress, p.TreasuryAddress,
		p.PlatformFeeBPS, p.LateCancelPenaltyBPS, p.ChallengeWindowSecs,
		p.NoAttestBufferSecs, p.DisputeTimeoutSecs, p.DisputeBondNano, p.MinLeadTimeMins)
	return err
}

func (r *ParamsRepo) Update(ctx context.Context, p *models.EngineParams) (*models.EngineParams, error) {
	return scanParams(r.db.QueryRow(ctx, `
		UPDATE engine_params SET
			owner_address = $1, oracle_address = $2, treasury_address = $3,
			platform_fee_bps = $4, late_cancel_penalty_bps = $5,
			challenge_window_secs = $6, no_attest_buffer_secs = $7,
			dispute_timeout_secs = $8, dispute_bond_nano = $9,
			min_lead_time_mins = $10, updated_at = now()
		RETURNING `+paramsColumns,
		p.OwnerAddress, p.OracleAddress, p.TreasuryAddress,
		p.PlatformFeeBPS, p.LateCancelPenaltyBPS, p.ChallengeWindowSecs,
		p.NoAttestBufferSecs, p.DisputeTimeoutSecs, p.DisputeBondNano,
		p.MinLeadTimeMins))
}
