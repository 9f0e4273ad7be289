package memory

import (
	"context"

	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

// Ledger snapshots and replaces the combined state of the memory stores,
// the in-memory twin of the postgres LedgerStore.
type Ledger struct {
	Voters *VoterStore
	Posts  *PostStore
	Votes  *VoteStore
	Audit  *AuditStore
}

func NewLedger(voters *VoterStore, posts *PostStore, votes *VoteStore, audit *AuditStore) *Ledger {
	return &Ledger{Voters: voters, Posts: posts, Votes: votes, Audit: audit}
}

var _ ports.LedgerStore = (*Ledger)(nil)

func (l *Ledger) ExportState(ctx context.Context) (*domain.LedgerState, error) {
	return &domain.LedgerState{
		Voters:       l.Voters.All(),
		Posts:        l.Posts.All(),
		Votes:        l.Votes.All(),
		AuditEntries: l.Audit.All(),
	}, nil
}

func (l *Ledger) ReplaceState(ctx context.Context, state *domain.LedgerState) error {
	l.Voters.Reset(state.Voters)
	l.Posts.Reset(state.Posts)
	l.Votes.Reset(state.Votes)
	l.Audit.Reset(state.AuditEntries)
	return nil
}
