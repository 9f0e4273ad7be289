package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type postService struct {
	repo ports.PostRepository
}

func NewPostService(repo ports.PostRepository) ports.PostService {
	return &postService{repo: repo}
}

func (s *postService) GetPost(ctx context.Context, id uuid.UUID) (*domain.ElectionPost, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *postService) ListPosts(ctx context.Context) ([]*domain.ElectionPost, error) {
	return s.repo.List(ctx)
}
