package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

// VoteRepository is the ledger-side vote contract. Insert must commit the
// vote row and the voter's denormalized summary in one transaction, and
// must translate the storage (voter_id, post_id) unique violation into
// domain.ErrDuplicateVote.
type VoteRepository interface {
	Insert(ctx context.Context, vote *domain.Vote) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vote, error)
	GetByReceiptHash(ctx context.Context, hash string) (*domain.Vote, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VoteStatus, reason *string) error
	CountByPost(ctx context.Context, postID uuid.UUID) (map[uuid.UUID]int64, error)
}

type CastVoteInput struct {
	VoterID     uuid.UUID
	PostID      uuid.UUID
	CandidateID uuid.UUID
}

type VoteService interface {
	CastVote(ctx context.Context, input CastVoteInput) (*domain.VoteReceipt, error)
	VerifyVote(ctx context.Context, actor string, voteID uuid.UUID) error
	InvalidateVote(ctx context.Context, actor string, voteID uuid.UUID, reason string) error
}
