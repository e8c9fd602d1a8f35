package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID           uuid.UUID  `json:"id"`
	ActorAddress *string    `json:"actor_address,omitempty"`
	ActorType    string     `json:"actor_type"` // user/oracle/arbiter/system
	Action       string     `json:"action"`
	EntityType   string     `json:"entity_type"`
	EntityID     *uuid.UUID `json:"entity_id,omitempty"`
	Meta         any        `json:"meta,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TonProofPayload is a one-time login nonce for TON Connect proof.
type TonProofPayload struct {
	ID        uuid.UUID `json:"id"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
	Used      bool      `json:"-"`
}
