package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/metrics"
)

type backupService struct {
	snapshots   ports.BackupRepository
	ledger      ports.LedgerStore
	audit       ports.AuditRecorder
	broadcaster ports.ResultsBroadcaster
	log         *slog.Logger
	metrics     *metrics.Metrics
}

func NewBackupService(
	snapshots ports.BackupRepository,
	ledger ports.LedgerStore,
	audit ports.AuditRecorder,
	broadcaster ports.ResultsBroadcaster,
	log *slog.Logger,
	m *metrics.Metrics,
) ports.BackupService {
	return &backupService{
		snapshots:   snapshots,
		ledger:      ledger,
		audit:       audit,
		broadcaster: broadcaster,
		log:         log,
		metrics:     m,
	}
}

// CreateBackup serializes the full ledger state, checksums it and stores
// the snapshot. The row is written pending first so a crash mid-export
// leaves a visibly failed snapshot, never a silently truncated one.
func (s *backupService) CreateBackup(ctx context.Context, actor string) (*domain.BackupSnapshot, error) {
	state, err := s.ledger.ExportState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export ledger state: %w", err)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ledger state: %w", err)
	}

	sum := sha256.Sum256(payload)
	snap := &domain.BackupSnapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Status:    domain.BackupStatusPending,
		Checksum:  hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(payload)),
		Payload:   payload,
	}

	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := s.snapshots.FinalizeSnapshot(ctx, snap.ID, domain.BackupStatusComplete); err != nil {
		return nil, fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	snap.Status = domain.BackupStatusComplete
	s.metrics.BackupsCreated.Inc()

	s.audit.Record(actor, "backup.create", "backup", snap.ID.String(), map[string]string{
		"checksum":   snap.Checksum,
		"size_bytes": fmt.Sprintf("%d", snap.SizeBytes),
	})
	s.notifyAdmins(ctx, "backup-created", map[string]string{"backup_id": snap.ID.String()})

	return snap, nil
}

// RestoreBackup verifies the checksum and then atomically replaces the
// live ledger. A checksum mismatch fails the restore and leaves the
// ledger untouched.
func (s *backupService) RestoreBackup(ctx context.Context, actor string, id uuid.UUID) error {
	snap, err := s.snapshots.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if snap.Status != domain.BackupStatusComplete {
		return domain.ErrBackupIncomplete
	}

	sum := sha256.Sum256(snap.Payload)
	if hex.EncodeToString(sum[:]) != snap.Checksum {
		s.audit.Record(actor, "backup.restore_failed", "backup", id.String(), map[string]string{
			"reason": "checksum mismatch",
		})
		return domain.ErrChecksumMismatch
	}

	var state domain.LedgerState
	if err := json.Unmarshal(snap.Payload, &state); err != nil {
		return fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	if err := s.ledger.ReplaceState(ctx, &state); err != nil {
		return fmt.Errorf("failed to replace ledger state: %w", err)
	}

	s.audit.Record(actor, "backup.restore", "backup", id.String(), map[string]string{
		"checksum": snap.Checksum,
	})
	s.notifyAdmins(ctx, "backup-restored", map[string]string{"backup_id": id.String()})

	// Every post's aggregate may have changed; push fresh snapshots.
	for _, post := range state.Posts {
		s.broadcaster.ResultsChanged(ctx, post.ID)
	}

	return nil
}

// Cleanup deletes snapshots beyond the retention policy, oldest first.
// The most recent complete snapshot survives regardless of age.
func (s *backupService) Cleanup(ctx context.Context, actor string, policy domain.RetentionPolicy) (int, error) {
	snaps, err := s.snapshots.ListSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	var newestComplete uuid.UUID
	for _, snap := range snaps {
		if snap.Status == domain.BackupStatusComplete {
			newestComplete = snap.ID
			break
		}
	}

	cutoff := time.Time{}
	if policy.MaxAge > 0 {
		cutoff = time.Now().Add(-policy.MaxAge)
	}

	deleted := 0
	for i := len(snaps) - 1; i >= 0; i-- {
		snap := snaps[i]
		if snap.ID == newestComplete {
			continue
		}

		expired := policy.MaxAge > 0 && snap.CreatedAt.Before(cutoff)
		overCount := policy.MaxCount > 0 && len(snaps)-deleted > policy.MaxCount
		if !expired && !overCount {
			continue
		}

		if err := s.snapshots.DeleteSnapshot(ctx, snap.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", snap.ID, err)
		}
		deleted++
	}

	if deleted > 0 {
		s.audit.Record(actor, "backup.cleanup", "backup", "", map[string]string{
			"deleted": fmt.Sprintf("%d", deleted),
		})
	}

	return deleted, nil
}

func (s *backupService) ListBackups(ctx context.Context) ([]*domain.BackupSnapshot, error) {
	return s.snapshots.ListSnapshots(ctx)
}

func (s *backupService) notifyAdmins(ctx context.Context, event string, details map[string]string) {
	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
		defer cancel()
		s.broadcaster.NotifyAdmins(bctx, event, details)
	}()
}
