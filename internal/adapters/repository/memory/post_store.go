package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type PostStore struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*domain.ElectionPost
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[uuid.UUID]*domain.ElectionPost)}
}

var _ ports.PostRepository = (*PostStore)(nil)

func (s *PostStore) Add(post domain.ElectionPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = &post
}

func (s *PostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ElectionPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	cloned := *post
	cloned.Candidates = append([]domain.Candidate(nil), post.Candidates...)
	return &cloned, nil
}

func (s *PostStore) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, post := range s.posts {
		for _, c := range post.Candidates {
			if c.ID == id {
				cloned := c
				return &cloned, nil
			}
		}
	}
	return nil, domain.ErrCandidateNotFound
}

func (s *PostStore) List(ctx context.Context) ([]*domain.ElectionPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]*domain.ElectionPost, 0, len(s.posts))
	for _, post := range s.posts {
		cloned := *post
		cloned.Candidates = append([]domain.Candidate(nil), post.Candidates...)
		posts = append(posts, &cloned)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *PostStore) All() []domain.ElectionPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]domain.ElectionPost, 0, len(s.posts))
	for _, post := range s.posts {
		cloned := *post
		cloned.Candidates = append([]domain.Candidate(nil), post.Candidates...)
		posts = append(posts, cloned)
	}
	return posts
}

func (s *PostStore) Reset(posts []domain.ElectionPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = make(map[uuid.UUID]*domain.ElectionPost, len(posts))
	for i := range posts {
		post := posts[i]
		s.posts[post.ID] = &post
	}
}
