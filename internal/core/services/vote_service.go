package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/metrics"
)

// broadcastTimeout bounds the post-commit fanout dispatch. The caller
// never waits on it; a push that cannot finish in time is dropped and
// the next publish recovers subscriber state.
const broadcastTimeout = 5 * time.Second

type voteService struct {
	postRepo    ports.PostRepository
	voterRepo   ports.VoterRepository
	voteRepo    ports.VoteRepository
	receipts    ports.ReceiptService
	broadcaster ports.ResultsBroadcaster
	audit       ports.AuditRecorder
	log         *slog.Logger
	metrics     *metrics.Metrics
}

func NewVoteService(
	postRepo ports.PostRepository,
	voterRepo ports.VoterRepository,
	voteRepo ports.VoteRepository,
	receipts ports.ReceiptService,
	broadcaster ports.ResultsBroadcaster,
	audit ports.AuditRecorder,
	log *slog.Logger,
	m *metrics.Metrics,
) ports.VoteService {
	return &voteService{
		postRepo:    postRepo,
		voterRepo:   voterRepo,
		voteRepo:    voteRepo,
		receipts:    receipts,
		broadcaster: broadcaster,
		audit:       audit,
		log:         log,
		metrics:     m,
	}
}

// CastVote validates preconditions in order, commits the vote and the
// voter's denormalized summary in one transaction, then dispatches the
// realtime fanout asynchronously. The storage unique index on
// (voter_id, post_id) is the final arbiter for duplicates: two racing
// attempts serialize there and exactly one wins.
func (s *voteService) CastVote(ctx context.Context, input ports.CastVoteInput) (*domain.VoteReceipt, error) {
	post, err := s.postRepo.GetByID(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsOpen(time.Now()) {
		return nil, domain.ErrPostClosed
	}

	candidate, err := s.postRepo.GetCandidate(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate.PostID != input.PostID {
		return nil, domain.ErrInvalidCandidate
	}
	if !candidate.Active {
		return nil, domain.ErrCandidateInactive
	}

	if _, err := s.voterRepo.GetByID(ctx, input.VoterID); err != nil {
		return nil, err
	}

	vote := &domain.Vote{
		ID:          uuid.New(),
		VoterID:     input.VoterID,
		PostID:      input.PostID,
		CandidateID: input.CandidateID,
		CastAt:      time.Now().UTC(),
		Status:      domain.VoteStatusPendingReview,
	}
	vote.ReceiptHash = s.receipts.Compute(vote)

	if err := s.voteRepo.Insert(ctx, vote); err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) {
			s.metrics.DuplicateVotes.Inc()
			return nil, domain.ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to commit vote: %w", err)
	}
	s.metrics.VotesCast.Inc()

	// The vote is durable; fanout must not extend the caller's wait or
	// roll anything back.
	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
		defer cancel()
		s.broadcaster.VoteCommitted(bctx, vote.PostID, vote.CandidateID)
	}()

	return &domain.VoteReceipt{
		VoteID:      vote.ID,
		ReceiptHash: vote.ReceiptHash,
		CastAt:      vote.CastAt,
	}, nil
}

// VerifyVote marks a vote as reviewed-and-verified. Privileged, audited.
func (s *voteService) VerifyVote(ctx context.Context, actor string, voteID uuid.UUID) error {
	vote, err := s.voteRepo.GetByID(ctx, voteID)
	if err != nil {
		return err
	}

	if err := s.voteRepo.UpdateStatus(ctx, voteID, domain.VoteStatusVerified, nil); err != nil {
		return fmt.Errorf("failed to verify vote: %w", err)
	}

	s.audit.Record(actor, "vote.verify", "vote", voteID.String(), map[string]string{
		"post_id":       vote.PostID.String(),
		"status_before": string(vote.Status),
		"status_after":  string(domain.VoteStatusVerified),
	})
	return nil
}

// InvalidateVote excludes a vote from aggregates for transparency audits.
// The (voter, post) slot stays taken: invalidation is not a do-over.
func (s *voteService) InvalidateVote(ctx context.Context, actor string, voteID uuid.UUID, reason string) error {
	vote, err := s.voteRepo.GetByID(ctx, voteID)
	if err != nil {
		return err
	}

	if err := s.voteRepo.UpdateStatus(ctx, voteID, domain.VoteStatusInvalidated, &reason); err != nil {
		return fmt.Errorf("failed to invalidate vote: %w", err)
	}
	s.metrics.VotesInvalidated.Inc()

	s.audit.Record(actor, "vote.invalidate", "vote", voteID.String(), map[string]string{
		"post_id":       vote.PostID.String(),
		"status_before": string(vote.Status),
		"status_after":  string(domain.VoteStatusInvalidated),
		"reason":        reason,
	})

	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
		defer cancel()
		s.broadcaster.ResultsChanged(bctx, vote.PostID)
		s.broadcaster.NotifyAdmins(bctx, "vote-invalidated", map[string]string{
			"vote_id": voteID.String(),
			"post_id": vote.PostID.String(),
			"reason":  reason,
		})
	}()

	return nil
}
