package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

const uniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{db: db}
}

// Insert commits the vote and the voter's denormalized summary in one
// transaction. The votes_voter_post_key unique index is the final
// arbiter for duplicates: concurrent attempts from the same voter
// serialize there, and the loser surfaces as domain.ErrDuplicateVote.
func (r *voteRepository) Insert(ctx context.Context, vote *domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO votes (id, voter_id, post_id, candidate_id, receipt_hash, cast_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, vote.ID, vote.VoterID, vote.PostID, vote.CandidateID, vote.ReceiptHash, vote.CastAt, vote.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE voters SET has_voted = TRUE, voted_at = $2 WHERE id = $1
	`, vote.VoterID, vote.CastAt)
	if err != nil {
		return fmt.Errorf("failed to update voter summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return nil
}

func (r *voteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vote, error) {
	return r.scanOne(ctx, `
		SELECT id, voter_id, post_id, candidate_id, receipt_hash, cast_at, status, invalidation_reason
		FROM votes WHERE id = $1
	`, id)
}

func (r *voteRepository) GetByReceiptHash(ctx context.Context, hash string) (*domain.Vote, error) {
	return r.scanOne(ctx, `
		SELECT id, voter_id, post_id, candidate_id, receipt_hash, cast_at, status, invalidation_reason
		FROM votes WHERE receipt_hash = $1
	`, hash)
}

func (r *voteRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Vote, error) {
	vote := &domain.Vote{}
	var reason sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&vote.ID, &vote.VoterID, &vote.PostID, &vote.CandidateID,
		&vote.ReceiptHash, &vote.CastAt, &vote.Status, &reason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to fetch vote: %w", err)
	}
	if reason.Valid {
		vote.InvalidationReason = &reason.String
	}
	return vote, nil
}

func (r *voteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VoteStatus, reason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE votes SET status = $2, invalidation_reason = $3 WHERE id = $1
	`, id, status, reason)
	if err != nil {
		return fmt.Errorf("failed to update vote status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

// CountByPost counts non-invalidated votes grouped by candidate.
func (r *voteRepository) CountByPost(ctx context.Context, postID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT candidate_id, COUNT(*)
		FROM votes
		WHERE post_id = $1 AND status <> $2
		GROUP BY candidate_id
	`, postID, domain.VoteStatusInvalidated)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var candidateID uuid.UUID
		var n int64
		if err := rows.Scan(&candidateID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[candidateID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote counts: %w", err)
	}
	return counts, nil
}
