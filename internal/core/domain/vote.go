package domain

import (
	"time"

	"github.com/google/uuid"
)

type VoteStatus string

const (
	VoteStatusPendingReview VoteStatus = "pending-review"
	VoteStatusVerified      VoteStatus = "verified"
	VoteStatusInvalidated   VoteStatus = "invalidated"
)

// Vote is immutable once committed, except for Status and
// InvalidationReason which privileged review actions may set.
type Vote struct {
	ID                 uuid.UUID  `json:"id"`
	VoterID            uuid.UUID  `json:"voter_id"`
	PostID             uuid.UUID  `json:"post_id"`
	CandidateID        uuid.UUID  `json:"candidate_id"`
	ReceiptHash        string     `json:"receipt_hash"`
	CastAt             time.Time  `json:"cast_at"`
	Status             VoteStatus `json:"status"`
	InvalidationReason *string    `json:"invalidation_reason,omitempty"`
}

// VoteReceipt is what a voter gets back after a successful cast.
type VoteReceipt struct {
	VoteID      uuid.UUID `json:"vote_id"`
	ReceiptHash string    `json:"receipt_hash"`
	CastAt      time.Time `json:"cast_at"`
}

// ReceiptLookup is the public view of a verified receipt. It proves a vote
// exists without exposing the voter or the candidate.
type ReceiptLookup struct {
	Exists bool      `json:"exists"`
	PostID uuid.UUID `json:"post_id"`
	CastAt time.Time `json:"cast_at"`
}
