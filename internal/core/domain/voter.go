package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleVoter    Role = "voter"
	RoleAdmin    Role = "admin"
	RoleICTAdmin Role = "ict_admin"
)

// Voter holds identity plus a denormalized voting summary. HasVoted and
// VotedAt are derived from the votes table and updated by the same
// transaction that commits a vote; the votes table stays authoritative.
type Voter struct {
	ID        uuid.UUID  `json:"id"`
	StudentID string     `json:"student_id"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	HasVoted  bool       `json:"has_voted"`
	VotedAt   *time.Time `json:"voted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
