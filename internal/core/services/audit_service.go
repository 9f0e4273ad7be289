package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/metrics"
)

const auditInboxSize = 256

// AuditRecorder buffers audit entries through a channel so recording
// never blocks or fails the operation being audited. A full inbox drops
// the entry and logs it; audit-store health never touches vote latency.
type AuditRecorder struct {
	store   ports.AuditRepository
	inbox   chan *domain.AuditLogEntry
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewAuditRecorder(store ports.AuditRepository, log *slog.Logger, m *metrics.Metrics) *AuditRecorder {
	return &AuditRecorder{
		store:   store,
		inbox:   make(chan *domain.AuditLogEntry, auditInboxSize),
		log:     log,
		metrics: m,
	}
}

// Record is fire-and-forget.
func (r *AuditRecorder) Record(actor, action, targetType, targetID string, details map[string]string) {
	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}

	select {
	case r.inbox <- entry:
	default:
		r.metrics.AuditEventsDropped.Inc()
		r.log.Error("audit entry dropped: inbox full",
			"actor", actor, "action", action, "target_id", targetID)
	}
}

// Run consumes the inbox and persists entries until the context ends,
// then drains whatever is already buffered. Store failures are logged
// for operational follow-up, never propagated.
func (r *AuditRecorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case entry := <-r.inbox:
			r.append(ctx, entry)
		}
	}
}

func (r *AuditRecorder) append(ctx context.Context, entry *domain.AuditLogEntry) {
	if err := r.store.Append(ctx, entry); err != nil {
		r.log.Error("audit write failed",
			"actor", entry.Actor, "action", entry.Action, "target_id", entry.TargetID, "error", err)
	}
}

func (r *AuditRecorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case entry := <-r.inbox:
			r.append(ctx, entry)
		default:
			return
		}
	}
}
