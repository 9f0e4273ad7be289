package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type VoterStore struct {
	mu     sync.Mutex
	voters map[uuid.UUID]*domain.Voter
}

func NewVoterStore() *VoterStore {
	return &VoterStore{voters: make(map[uuid.UUID]*domain.Voter)}
}

var _ ports.VoterRepository = (*VoterStore)(nil)

func (s *VoterStore) Add(voter domain.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter.ID] = &voter
}

func (s *VoterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		return nil, domain.ErrVoterNotFound
	}
	cloned := *voter
	return &cloned, nil
}

func (s *VoterStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.voters)), nil
}

func (s *VoterStore) markVoted(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if voter, ok := s.voters[id]; ok {
		voter.HasVoted = true
		voter.VotedAt = &at
	}
}

func (s *VoterStore) All() []domain.Voter {
	s.mu.Lock()
	defer s.mu.Unlock()
	voters := make([]domain.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		voters = append(voters, *v)
	}
	return voters
}

func (s *VoterStore) Reset(voters []domain.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters = make(map[uuid.UUID]*domain.Voter, len(voters))
	for i := range voters {
		voter := voters[i]
		s.voters[voter.ID] = &voter
	}
}
