package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techno-hippies/heaven-sessions/internal/models"
)

type AuditRepo struct {
	db Querier
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{db: pool}
}

func (r *AuditRepo) WithTx(tx pgx.Tx) *AuditRepo {
	return &AuditRepo{db: tx}
}

// Log appends an audit row. Meta is marshalled to jsonb; nil stores NULL.
func (r *AuditRepo) Log(ctx context.Context, actorAddress *string, actorType, action, entityType string, entityID *uuid.UUID, meta any) error {
	var metaJSON []byte
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaJSON = b
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (actor_address, actor_type, action, entity_type, entity_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, actorAddress, actorType, action, entityType, entityID, metaJSON)
	return err
}

// ListByEntity returns the audit trail of one entity, oldest first.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_address, actor_type, action, entity_type, entity_id, meta, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		var metaJSON []byte
		if err := rows.Scan(&a.ID, &a.ActorAddress, &a.ActorType, &a.Action,
			&a.EntityType, &a.EntityID, &metaJSON, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			var meta any
			if err := json.Unmarshal(metaJSON, &meta); err == nil {
				a.Meta = meta
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
