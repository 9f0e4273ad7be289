package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

type VoterRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error)
	// Count returns the number of registered voters, the turnout
	// denominator.
	Count(ctx context.Context) (int64, error)
}
