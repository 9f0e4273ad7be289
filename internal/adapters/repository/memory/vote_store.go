package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type voterPostKey struct {
	voterID uuid.UUID
	postID  uuid.UUID
}

// VoteStore is the in-memory twin of the postgres vote repository. The
// byVoterPost map mirrors the votes_voter_post_key unique index,
// including its invalidation-does-not-free-the-slot semantics.
type VoteStore struct {
	mu          sync.Mutex
	votes       map[uuid.UUID]*domain.Vote
	byVoterPost map[voterPostKey]uuid.UUID
	byReceipt   map[string]uuid.UUID
	voters      *VoterStore
}

// NewVoteStore creates a vote store. voters may be nil when the test
// does not care about the denormalized summary.
func NewVoteStore(voters *VoterStore) *VoteStore {
	return &VoteStore{
		votes:       make(map[uuid.UUID]*domain.Vote),
		byVoterPost: make(map[voterPostKey]uuid.UUID),
		byReceipt:   make(map[string]uuid.UUID),
		voters:      voters,
	}
}

var _ ports.VoteRepository = (*VoteStore)(nil)

func (s *VoteStore) Insert(ctx context.Context, vote *domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voterPostKey{voterID: vote.VoterID, postID: vote.PostID}
	if _, exists := s.byVoterPost[key]; exists {
		return domain.ErrDuplicateVote
	}

	cloned := *vote
	s.votes[vote.ID] = &cloned
	s.byVoterPost[key] = vote.ID
	s.byReceipt[vote.ReceiptHash] = vote.ID

	if s.voters != nil {
		s.voters.markVoted(vote.VoterID, vote.CastAt)
	}
	return nil
}

func (s *VoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[id]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	cloned := *vote
	return &cloned, nil
}

func (s *VoteStore) GetByReceiptHash(ctx context.Context, hash string) (*domain.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byReceipt[hash]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	cloned := *s.votes[id]
	return &cloned, nil
}

func (s *VoteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VoteStatus, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[id]
	if !ok {
		return domain.ErrVoteNotFound
	}
	vote.Status = status
	vote.InvalidationReason = reason
	return nil
}

func (s *VoteStore) CountByPost(ctx context.Context, postID uuid.UUID) (map[uuid.UUID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uuid.UUID]int64)
	for _, vote := range s.votes {
		if vote.PostID != postID || vote.Status == domain.VoteStatusInvalidated {
			continue
		}
		counts[vote.CandidateID]++
	}
	return counts, nil
}

// All returns a copy of every vote, cast order not guaranteed.
func (s *VoteStore) All() []domain.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	votes := make([]domain.Vote, 0, len(s.votes))
	for _, vote := range s.votes {
		votes = append(votes, *vote)
	}
	return votes
}

// Reset replaces the store contents, used by the memory ledger restore.
func (s *VoteStore) Reset(votes []domain.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = make(map[uuid.UUID]*domain.Vote, len(votes))
	s.byVoterPost = make(map[voterPostKey]uuid.UUID, len(votes))
	s.byReceipt = make(map[string]uuid.UUID, len(votes))
	for i := range votes {
		vote := votes[i]
		s.votes[vote.ID] = &vote
		s.byVoterPost[voterPostKey{voterID: vote.VoterID, postID: vote.PostID}] = vote.ID
		s.byReceipt[vote.ReceiptHash] = vote.ID
	}
}
