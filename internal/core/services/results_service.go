package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type resultsService struct {
	postRepo  ports.PostRepository
	voteRepo  ports.VoteRepository
	voterRepo ports.VoterRepository
	cache     ports.ResultsCache
	log       *slog.Logger
}

// NewResultsService builds the aggregator. cache may be nil when no
// write-through mirror is configured.
func NewResultsService(
	postRepo ports.PostRepository,
	voteRepo ports.VoteRepository,
	voterRepo ports.VoterRepository,
	cache ports.ResultsCache,
	log *slog.Logger,
) ports.ResultsService {
	return &resultsService{
		postRepo:  postRepo,
		voteRepo:  voteRepo,
		voterRepo: voterRepo,
		cache:     cache,
		log:       log,
	}
}

// GetPostResults recounts non-invalidated votes grouped by candidate.
// There is no incremental counter that could drift from the ledger: the
// push and pull paths both land here, and the cache is written through
// after the recount, never read to answer this call.
func (s *resultsService) GetPostResults(ctx context.Context, postID uuid.UUID) (*domain.PostResults, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	counts, err := s.voteRepo.CountByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	// Candidates with zero votes still appear in the payload.
	for _, c := range post.Candidates {
		if _, ok := counts[c.ID]; !ok {
			counts[c.ID] = 0
		}
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	eligible, err := s.voterRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count eligible voters: %w", err)
	}

	turnout := 0.0
	if eligible > 0 {
		turnout = float64(total) / float64(eligible) * 100
	}

	results := &domain.PostResults{
		PostID:            postID,
		Counts:            counts,
		TotalVotes:        total,
		TurnoutPercentage: turnout,
		ComputedAt:        time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, results); err != nil {
			// Cache trouble never blocks a results read.
			s.log.Warn("results cache write failed", "post_id", postID, "error", err)
		}
	}

	return results, nil
}
