package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolvote/election/internal/adapters/repository/memory"
	"github.com/schoolvote/election/internal/core/domain"
)

type cacheSpy struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*domain.PostResults
	setErr  error
}

func newCacheSpy() *cacheSpy {
	return &cacheSpy{entries: make(map[uuid.UUID]*domain.PostResults)}
}

func (c *cacheSpy) Set(ctx context.Context, results *domain.PostResults) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[results.PostID] = results
	return nil
}

func (c *cacheSpy) Get(ctx context.Context, postID uuid.UUID) (*domain.PostResults, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.entries[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return results, nil
}

type resultsEnv struct {
	voters *memory.VoterStore
	posts  *memory.PostStore
	votes  *memory.VoteStore
	cache  *cacheSpy

	postID uuid.UUID
	candA  uuid.UUID
	candB  uuid.UUID
	candC  uuid.UUID
}

func newResultsEnv(t *testing.T) *resultsEnv {
	t.Helper()

	env := &resultsEnv{
		voters: memory.NewVoterStore(),
		posts:  memory.NewPostStore(),
		cache:  newCacheSpy(),
		postID: uuid.New(),
		candA:  uuid.New(),
		candB:  uuid.New(),
		candC:  uuid.New(),
	}
	env.votes = memory.NewVoteStore(env.voters)

	now := time.Now().UTC()
	env.posts.Add(domain.ElectionPost{
		ID:     env.postID,
		Title:  "Sports Captain",
		Active: true,
		Candidates: []domain.Candidate{
			{ID: env.candA, PostID: env.postID, Name: "A", Active: true},
			{ID: env.candB, PostID: env.postID, Name: "B", Active: true},
			{ID: env.candC, PostID: env.postID, Name: "C", Active: true},
		},
		CreatedAt: now,
	})
	return env
}

func (env *resultsEnv) castVote(t *testing.T, candidateID uuid.UUID) uuid.UUID {
	t.Helper()
	voterID := uuid.New()
	env.voters.Add(domain.Voter{ID: voterID, StudentID: voterID.String()[:8], Role: domain.RoleVoter})
	voteID := uuid.New()
	err := env.votes.Insert(context.Background(), &domain.Vote{
		ID:          voteID,
		VoterID:     voterID,
		PostID:      env.postID,
		CandidateID: candidateID,
		ReceiptHash: voteID.String(),
		CastAt:      time.Now().UTC(),
		Status:      domain.VoteStatusPendingReview,
	})
	require.NoError(t, err)
	return voteID
}

func TestGetPostResults(t *testing.T) {
	env := newResultsEnv(t)
	ctx := context.Background()

	env.castVote(t, env.candA)
	env.castVote(t, env.candA)
	env.castVote(t, env.candB)
	invalidated := env.castVote(t, env.candB)
	reason := "duplicate account"
	require.NoError(t, env.votes.UpdateStatus(ctx, invalidated, domain.VoteStatusInvalidated, &reason))

	svc := NewResultsService(env.posts, env.votes, env.voters, env.cache, testLogger())
	results, err := svc.GetPostResults(ctx, env.postID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), results.Counts[env.candA])
	assert.Equal(t, int64(1), results.Counts[env.candB])

	// Zero-vote candidates still appear, and the total equals the sum.
	zero, ok := results.Counts[env.candC]
	assert.True(t, ok)
	assert.Zero(t, zero)
	assert.Equal(t, int64(3), results.TotalVotes)

	// 4 registered voters, 3 counted votes.
	assert.InDelta(t, 75.0, results.TurnoutPercentage, 0.01)
	assert.False(t, results.ComputedAt.IsZero())

	// Write-through: the cache mirrors exactly what the caller got.
	cached, err := env.cache.Get(ctx, env.postID)
	require.NoError(t, err)
	assert.Equal(t, results, cached)
}

func TestGetPostResultsUnknownPost(t *testing.T) {
	env := newResultsEnv(t)
	svc := NewResultsService(env.posts, env.votes, env.voters, nil, testLogger())
	_, err := svc.GetPostResults(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestGetPostResultsCacheFailureIsTransparent(t *testing.T) {
	env := newResultsEnv(t)
	env.castVote(t, env.candA)
	env.cache.setErr = errors.New("redis unavailable")

	svc := NewResultsService(env.posts, env.votes, env.voters, env.cache, testLogger())
	results, err := svc.GetPostResults(context.Background(), env.postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), results.TotalVotes)
}

func TestGetPostResultsEmptyElection(t *testing.T) {
	env := newResultsEnv(t)
	svc := NewResultsService(env.posts, env.votes, env.voters, nil, testLogger())
	results, err := svc.GetPostResults(context.Background(), env.postID)
	require.NoError(t, err)
	assert.Zero(t, results.TotalVotes)
	assert.Zero(t, results.TurnoutPercentage)
	assert.Len(t, results.Counts, 3)
}
