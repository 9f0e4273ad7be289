package domain

import (
	"time"

	"github.com/google/uuid"
)

type ElectionPost struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
	OpensAt     *time.Time  `json:"opens_at,omitempty"`
	ClosesAt    *time.Time  `json:"closes_at,omitempty"`
	Candidates  []Candidate `json:"candidates"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsOpen reports whether the post accepts votes at the given instant.
func (p *ElectionPost) IsOpen(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.OpensAt != nil && now.Before(*p.OpensAt) {
		return false
	}
	if p.ClosesAt != nil && now.After(*p.ClosesAt) {
		return false
	}
	return true
}

type Candidate struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
