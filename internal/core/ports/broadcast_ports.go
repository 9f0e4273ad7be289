package ports

import (
	"context"

	"github.com/google/uuid"
)

// ResultsBroadcaster fans out result changes to realtime subscribers.
// Every method is best-effort: failures are logged by the implementation
// and never reach the caller of the primary operation.
type ResultsBroadcaster interface {
	// VoteCommitted is invoked after a successful cast commit. It pushes
	// a vote-cast event plus fresh result snapshots to the relevant
	// topics.
	VoteCommitted(ctx context.Context, postID, candidateID uuid.UUID)
	// ResultsChanged re-publishes result snapshots for a post whose
	// aggregate changed outside a cast (vote invalidation, restore).
	ResultsChanged(ctx context.Context, postID uuid.UUID)
	// NotifyAdmins pushes an event to the privileged admin topic.
	NotifyAdmins(ctx context.Context, event string, details map[string]string)
}
