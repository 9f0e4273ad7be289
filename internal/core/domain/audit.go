package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is an append-only record of a privileged state change.
// Entries are never mutated or deleted except by a full-system reset,
// which is itself audited.
type AuditLogEntry struct {
	ID         uuid.UUID         `json:"id"`
	Actor      string            `json:"actor"`
	Action     string            `json:"action"`
	TargetType string            `json:"target_type"`
	TargetID   string            `json:"target_id"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type AuditFilter struct {
	Actor      string
	Action     string
	TargetType string
	Limit      int
}
