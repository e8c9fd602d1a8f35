package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type ProofRepo struct {
	db Querier
}

func NewProofRepo(pool *pgxpool.Pool) *ProofRepo {
	return &ProofRepo{db: pool}
}

func (r *ProofRepo) Create(ctx context.Context, payload string, ttl time.Duration) (*models.TonProofPayload, error) {
	var p models.TonProofPayload
	err := r.db.QueryRow(ctx, `
		INSERT INTO ton_proof_payloads (payload, expires_at)
		VALUES ($1, now() + $2::interval)
		RETURNING id, payload, created_at, expires_at, used
	`, payload, ttl.String()).Scan(&p.ID, &p.Payload, &p.CreatedAt, &p.ExpiresAt, &p.Used)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Consume marks the one-time payload used. Returns false when the payload is
// unknown, already used, or expired (a replayed login attempt).
func (r *ProofRepo) Consume(ctx context.Context, payload string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE ton_proof_payloads SET used = true
		WHERE payload = $1 AND used = false AND expires_at > now()
	`, payload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired clears stale nonces. Run periodically by the worker.
func (r *ProofRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM ton_proof_payloads WHERE expires_at <= now() - interval '1 hour'
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
