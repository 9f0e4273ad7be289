package ports

import (
	"context"

	"github.com/schoolvote/election/internal/core/domain"
)

// ReceiptService computes and verifies tamper-evident vote receipts.
type ReceiptService interface {
	// Compute returns the deterministic receipt digest for a vote. The
	// vote's ID and CastAt must already be set.
	Compute(vote *domain.Vote) string
	// Verify resolves a receipt hash to its public proof of inclusion.
	// It never reveals the voter or the candidate.
	Verify(ctx context.Context, hash string) (*domain.ReceiptLookup, error)
}
