package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type backupRepository struct {
	db *sql.DB
}

func NewBackupRepository(db *sql.DB) ports.BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) SaveSnapshot(ctx context.Context, snap *domain.BackupSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_snapshots (id, created_at, status, checksum, size_bytes, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snap.ID, snap.CreatedAt, snap.Status, snap.Checksum, snap.SizeBytes, snap.Payload)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *backupRepository) FinalizeSnapshot(ctx context.Context, id uuid.UUID, status domain.BackupStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE backup_snapshots SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return domain.ErrBackupNotFound
	}
	return nil
}

func (r *backupRepository) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.BackupSnapshot, error) {
	snap := &domain.BackupSnapshot{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, status, checksum, size_bytes, payload
		FROM backup_snapshots WHERE id = $1
	`, id).Scan(&snap.ID, &snap.CreatedAt, &snap.Status, &snap.Checksum, &snap.SizeBytes, &snap.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	return snap, nil
}

func (r *backupRepository) ListSnapshots(ctx context.Context) ([]*domain.BackupSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, status, checksum, size_bytes
		FROM backup_snapshots ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.BackupSnapshot
	for rows.Next() {
		snap := &domain.BackupSnapshot{}
		if err := rows.Scan(&snap.ID, &snap.CreatedAt, &snap.Status, &snap.Checksum, &snap.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}

func (r *backupRepository) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM backup_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// LedgerStore exports and replaces the full authoritative state.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) ExportState(ctx context.Context) (*domain.LedgerState, error) {
	state := &domain.LedgerState{}

	postRepo := &postRepository{db: s.db}
	auditRepo := &auditRepository{db: s.db}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, name, role, has_voted, voted_at, created_at FROM voters ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export voters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.Voter
		var votedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.StudentID, &v.Name, &v.Role, &v.HasVoted, &votedAt, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		if votedAt.Valid {
			v.VotedAt = &votedAt.Time
		}
		state.Voters = append(state.Voters, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voters: %w", err)
	}

	posts, err := postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export posts: %w", err)
	}
	for _, p := range posts {
		state.Posts = append(state.Posts, *p)
	}

	voteRows, err := s.db.QueryContext(ctx, `
		SELECT id, voter_id, post_id, candidate_id, receipt_hash, cast_at, status, invalidation_reason
		FROM votes ORDER BY cast_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export votes: %w", err)
	}
	defer voteRows.Close()
	for voteRows.Next() {
		var v domain.Vote
		var reason sql.NullString
		if err := voteRows.Scan(&v.ID, &v.VoterID, &v.PostID, &v.CandidateID, &v.ReceiptHash, &v.CastAt, &v.Status, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		if reason.Valid {
			v.InvalidationReason = &reason.String
		}
		state.Votes = append(state.Votes, v)
	}
	if err := voteRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}

	entries, err := auditRepo.List(ctx, domain.AuditFilter{Limit: 1 << 20})
	if err != nil {
		return nil, fmt.Errorf("failed to export audit log: %w", err)
	}
	for _, e := range entries {
		state.AuditEntries = append(state.AuditEntries, *e)
	}

	return state, nil
}

// ReplaceState is destructive and transactional: either the snapshot is
// applied completely or the live ledger is untouched.
func (s *LedgerStore) ReplaceState(ctx context.Context, state *domain.LedgerState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"votes", "candidates", "election_posts", "voters", "audit_log"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, v := range state.Voters {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO voters (id, student_id, name, role, has_voted, voted_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, v.ID, v.StudentID, v.Name, v.Role, v.HasVoted, v.VotedAt, v.CreatedAt); err != nil {
			return fmt.Errorf("failed to restore voter %s: %w", v.ID, err)
		}
	}

	for _, p := range state.Posts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO election_posts (id, title, description, active, opens_at, closes_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.Title, p.Description, p.Active, p.OpensAt, p.ClosesAt, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to restore post %s: %w", p.ID, err)
		}
		for _, c := range p.Candidates {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO candidates (id, post_id, name, active, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, c.ID, c.PostID, c.Name, c.Active, c.CreatedAt); err != nil {
				return fmt.Errorf("failed to restore candidate %s: %w", c.ID, err)
			}
		}
	}

	for _, v := range state.Votes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO votes (id, voter_id, post_id, candidate_id, receipt_hash, cast_at, status, invalidation_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, v.ID, v.VoterID, v.PostID, v.CandidateID, v.ReceiptHash, v.CastAt, v.Status, v.InvalidationReason); err != nil {
			return fmt.Errorf("failed to restore vote %s: %w", v.ID, err)
		}
	}

	for _, e := range state.AuditEntries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (id, actor, action, target_type, target_id, details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, e.Actor, e.Action, e.TargetType, e.TargetID, details, e.CreatedAt); err != nil {
			return fmt.Errorf("failed to restore audit entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}
