package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

type BackupRepository interface {
	SaveSnapshot(ctx context.Context, snap *domain.BackupSnapshot) error
	FinalizeSnapshot(ctx context.Context, id uuid.UUID, status domain.BackupStatus) error
	// GetSnapshot loads a snapshot including its payload.
	GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.BackupSnapshot, error)
	// ListSnapshots returns metadata newest first, payloads omitted.
	ListSnapshots(ctx context.Context) ([]*domain.BackupSnapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error
}

// LedgerStore exports and replaces the full authoritative state. Replace
// is transactional: it either applies completely or leaves the live
// ledger untouched.
type LedgerStore interface {
	ExportState(ctx context.Context) (*domain.LedgerState, error)
	ReplaceState(ctx context.Context, state *domain.LedgerState) error
}

type BackupService interface {
	CreateBackup(ctx context.Context, actor string) (*domain.BackupSnapshot, error)
	RestoreBackup(ctx context.Context, actor string, id uuid.UUID) error
	Cleanup(ctx context.Context, actor string, policy domain.RetentionPolicy) (int, error)
	ListBackups(ctx context.Context) ([]*domain.BackupSnapshot, error)
}
