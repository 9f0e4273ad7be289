package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type receiptService struct {
	voteRepo ports.VoteRepository
	salt     []byte
}

func NewReceiptService(voteRepo ports.VoteRepository, salt string) ports.ReceiptService {
	return &receiptService{
		voteRepo: voteRepo,
		salt:     []byte(salt),
	}
}

// Compute digests a canonical serialization of the vote's identifying
// fields with the server-side salt. The receipt proves a specific vote
// exists but cannot be forged without the salt, and the hash alone
// reveals nothing about the ballot.
func (s *receiptService) Compute(vote *domain.Vote) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s",
		vote.ID,
		vote.VoterID,
		vote.PostID,
		vote.CandidateID,
		vote.CastAt.UTC().Format(time.RFC3339Nano),
	)

	mac := hmac.New(sha256.New, s.salt)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify is public: it confirms inclusion and returns the post and cast
// time, never the voter or candidate, preserving ballot secrecy.
func (s *receiptService) Verify(ctx context.Context, hash string) (*domain.ReceiptLookup, error) {
	vote, err := s.voteRepo.GetByReceiptHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrVoteNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to look up receipt: %w", err)
	}

	return &domain.ReceiptLookup{
		Exists: true,
		PostID: vote.PostID,
		CastAt: vote.CastAt,
	}, nil
}
