package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type voterRepository struct {
	db *sql.DB
}

func NewVoterRepository(db *sql.DB) ports.VoterRepository {
	return &voterRepository{db: db}
}

func (r *voterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	voter := &domain.Voter{}
	var votedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, name, role, has_voted, voted_at, created_at
		FROM voters WHERE id = $1
	`, id).Scan(&voter.ID, &voter.StudentID, &voter.Name, &voter.Role, &voter.HasVoted, &votedAt, &voter.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoterNotFound
		}
		return nil, fmt.Errorf("failed to fetch voter: %w", err)
	}
	if votedAt.Valid {
		voter.VotedAt = &votedAt.Time
	}
	return voter, nil
}

func (r *voterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return n, nil
}
