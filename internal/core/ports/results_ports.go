package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
)

// ResultsService recounts from the ledger on every call. Pull (dashboard
// queries) and push (broadcast payloads) share this single implementation
// so the two paths cannot drift.
type ResultsService interface {
	GetPostResults(ctx context.Context, postID uuid.UUID) (*domain.PostResults, error)
}

// ResultsCache is a write-through mirror of the latest recount. It is
// never authoritative; errors are transient infrastructure failures.
type ResultsCache interface {
	Set(ctx context.Context, results *domain.PostResults) error
	Get(ctx context.Context, postID uuid.UUID) (*domain.PostResults, error)
}
