package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

type PostRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ElectionPost, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
	List(ctx context.Context) ([]*domain.ElectionPost, error)
}

type PostService interface {
	GetPost(ctx context.Context, id uuid.UUID) (*domain.ElectionPost, error)
	ListPosts(ctx context.Context) ([]*domain.ElectionPost, error)
}
