package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolvote/election/internal/adapters/repository/memory"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/metrics"
)

type broadcasterSpy struct {
	mu         sync.Mutex
	committed  []uuid.UUID
	changed    []uuid.UUID
	adminCalls []string
	notify     chan struct{}
}

func newBroadcasterSpy() *broadcasterSpy {
	return &broadcasterSpy{notify: make(chan struct{}, 16)}
}

func (b *broadcasterSpy) VoteCommitted(ctx context.Context, postID, candidateID uuid.UUID) {
	b.mu.Lock()
	b.committed = append(b.committed, postID)
	b.mu.Unlock()
	b.notify <- struct{}{}
}

func (b *broadcasterSpy) ResultsChanged(ctx context.Context, postID uuid.UUID) {
	b.mu.Lock()
	b.changed = append(b.changed, postID)
	b.mu.Unlock()
	b.notify <- struct{}{}
}

func (b *broadcasterSpy) NotifyAdmins(ctx context.Context, event string, details map[string]string) {
	b.mu.Lock()
	b.adminCalls = append(b.adminCalls, event)
	b.mu.Unlock()
	b.notify <- struct{}{}
}

func (b *broadcasterSpy) waitForNotify(t *testing.T) {
	t.Helper()
	select {
	case <-b.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcaster call")
	}
}

type auditSpy struct {
	mu      sync.Mutex
	actions []string
}

func (a *auditSpy) Record(actor, action, targetType, targetID string, details map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func (a *auditSpy) recorded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.actions...)
}

type voteEnv struct {
	voters      *memory.VoterStore
	posts       *memory.PostStore
	votes       *memory.VoteStore
	broadcaster *broadcasterSpy
	audit       *auditSpy
	service     ports.VoteService

	voterID     uuid.UUID
	postID      uuid.UUID
	candidateID uuid.UUID
	otherCandID uuid.UUID
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newVoteEnv(t *testing.T) *voteEnv {
	t.Helper()

	env := &voteEnv{
		voters:      memory.NewVoterStore(),
		posts:       memory.NewPostStore(),
		broadcaster: newBroadcasterSpy(),
		audit:       &auditSpy{},
		voterID:     uuid.New(),
		postID:      uuid.New(),
		candidateID: uuid.New(),
		otherCandID: uuid.New(),
	}
	env.votes = memory.NewVoteStore(env.voters)

	now := time.Now().UTC()
	env.voters.Add(domain.Voter{ID: env.voterID, StudentID: "S001", Name: "Test Voter", Role: domain.RoleVoter, CreatedAt: now})
	env.posts.Add(domain.ElectionPost{
		ID:     env.postID,
		Title:  "Head Prefect",
		Active: true,
		Candidates: []domain.Candidate{
			{ID: env.candidateID, PostID: env.postID, Name: "Candidate One", Active: true, CreatedAt: now},
			{ID: env.otherCandID, PostID: env.postID, Name: "Candidate Two", Active: true, CreatedAt: now},
		},
		CreatedAt: now,
	})

	receipts := NewReceiptService(env.votes, "test-salt")
	env.service = NewVoteService(
		env.posts, env.voters, env.votes, receipts,
		env.broadcaster, env.audit, testLogger(),
		metrics.NewWith(prometheus.NewRegistry()),
	)
	return env
}

func TestCastVote(t *testing.T) {
	env := newVoteEnv(t)
	ctx := context.Background()

	receipt, err := env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID:     env.voterID,
		PostID:      env.postID,
		CandidateID: env.candidateID,
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.ReceiptHash)
	assert.False(t, receipt.CastAt.IsZero())

	vote, err := env.votes.GetByID(ctx, receipt.VoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteStatusPendingReview, vote.Status)
	assert.Equal(t, env.candidateID, vote.CandidateID)

	// Denormalized summary must move with the vote commit.
	voter, err := env.voters.GetByID(ctx, env.voterID)
	require.NoError(t, err)
	assert.True(t, voter.HasVoted)
	require.NotNil(t, voter.VotedAt)

	env.broadcaster.waitForNotify(t)
}

func TestCastVotePreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown post", func(t *testing.T) {
		env := newVoteEnv(t)
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: uuid.New(), CandidateID: env.candidateID,
		})
		assert.ErrorIs(t, err, domain.ErrPostNotFound)
	})

	t.Run("inactive post", func(t *testing.T) {
		env := newVoteEnv(t)
		closedID := uuid.New()
		env.posts.Add(domain.ElectionPost{ID: closedID, Title: "Closed", Active: false, CreatedAt: time.Now()})
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: closedID, CandidateID: env.candidateID,
		})
		assert.ErrorIs(t, err, domain.ErrPostClosed)
	})

	t.Run("post past closing time", func(t *testing.T) {
		env := newVoteEnv(t)
		closedAt := time.Now().Add(-time.Hour)
		expiredID := uuid.New()
		env.posts.Add(domain.ElectionPost{ID: expiredID, Title: "Expired", Active: true, ClosesAt: &closedAt, CreatedAt: time.Now()})
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: expiredID, CandidateID: env.candidateID,
		})
		assert.ErrorIs(t, err, domain.ErrPostClosed)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		env := newVoteEnv(t)
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: env.postID, CandidateID: uuid.New(),
		})
		assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
	})

	t.Run("candidate from another post", func(t *testing.T) {
		env := newVoteEnv(t)
		otherPost := uuid.New()
		strayCandidate := uuid.New()
		env.posts.Add(domain.ElectionPost{
			ID: otherPost, Title: "Other", Active: true,
			Candidates: []domain.Candidate{{ID: strayCandidate, PostID: otherPost, Name: "Stray", Active: true}},
			CreatedAt:  time.Now(),
		})
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: env.postID, CandidateID: strayCandidate,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCandidate)
	})

	t.Run("inactive candidate", func(t *testing.T) {
		env := newVoteEnv(t)
		inactiveID := uuid.New()
		post, err := env.posts.GetByID(ctx, env.postID)
		require.NoError(t, err)
		post.Candidates = append(post.Candidates, domain.Candidate{
			ID: inactiveID, PostID: env.postID, Name: "Retired", Active: false,
		})
		env.posts.Add(*post)
		_, err = env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: env.voterID, PostID: env.postID, CandidateID: inactiveID,
		})
		assert.ErrorIs(t, err, domain.ErrCandidateInactive)
	})

	t.Run("unknown voter", func(t *testing.T) {
		env := newVoteEnv(t)
		_, err := env.service.CastVote(ctx, ports.CastVoteInput{
			VoterID: uuid.New(), PostID: env.postID, CandidateID: env.candidateID,
		})
		assert.ErrorIs(t, err, domain.ErrVoterNotFound)
	})
}

func TestCastVoteDuplicate(t *testing.T) {
	env := newVoteEnv(t)
	ctx := context.Background()

	_, err := env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID: env.voterID, PostID: env.postID, CandidateID: env.candidateID,
	})
	require.NoError(t, err)

	// A second attempt fails even for a different candidate.
	_, err = env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID: env.voterID, PostID: env.postID, CandidateID: env.otherCandID,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
}

func TestCastVoteConcurrentExactlyOneWins(t *testing.T) {
	env := newVoteEnv(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		candidate := env.candidateID
		if i%2 == 0 {
			candidate = env.otherCandID
		}
		wg.Add(1)
		go func(candidateID uuid.UUID) {
			defer wg.Done()
			_, err := env.service.CastVote(ctx, ports.CastVoteInput{
				VoterID: env.voterID, PostID: env.postID, CandidateID: candidateID,
			})
			results <- err
		}(candidate)
	}
	wg.Wait()
	close(results)

	var wins, duplicates int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrDuplicateVote):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, duplicates)
}

func TestInvalidateVoteKeepsLockout(t *testing.T) {
	env := newVoteEnv(t)
	ctx := context.Background()

	receipt, err := env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID: env.voterID, PostID: env.postID, CandidateID: env.candidateID,
	})
	require.NoError(t, err)

	err = env.service.InvalidateVote(ctx, "admin-1", receipt.VoteID, "ballot box stuffing")
	require.NoError(t, err)

	vote, err := env.votes.GetByID(ctx, receipt.VoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteStatusInvalidated, vote.Status)
	require.NotNil(t, vote.InvalidationReason)
	assert.Equal(t, "ballot box stuffing", *vote.InvalidationReason)

	// Invalidation excludes the vote from aggregates.
	counts, err := env.votes.CountByPost(ctx, env.postID)
	require.NoError(t, err)
	assert.Zero(t, counts[env.candidateID])

	// But it does not free the slot: one attempt per voter per post.
	_, err = env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID: env.voterID, PostID: env.postID, CandidateID: env.otherCandID,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)

	assert.Contains(t, env.audit.recorded(), "vote.invalidate")
}

func TestVerifyVoteRecordsAudit(t *testing.T) {
	env := newVoteEnv(t)
	ctx := context.Background()

	receipt, err := env.service.CastVote(ctx, ports.CastVoteInput{
		VoterID: env.voterID, PostID: env.postID, CandidateID: env.candidateID,
	})
	require.NoError(t, err)

	require.NoError(t, env.service.VerifyVote(ctx, "admin-1", receipt.VoteID))

	vote, err := env.votes.GetByID(ctx, receipt.VoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteStatusVerified, vote.Status)
	assert.Contains(t, env.audit.recorded(), "vote.verify")

	err = env.service.VerifyVote(ctx, "admin-1", uuid.New())
	assert.ErrorIs(t, err, domain.ErrVoteNotFound)
}
