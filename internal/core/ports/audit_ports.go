package ports

import (
	"context"

	"github.com/schoolvote/election/internal/core/domain"
)

type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error)
}

// AuditRecorder is fire-and-forget: Record must never block or fail the
// operation being audited. Dropped or failed writes are logged instead.
type AuditRecorder interface {
	Record(actor, action, targetType, targetID string, details map[string]string)
}
