package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostResults is a full recount for one post. Invalidated votes are
// excluded from every field.
type PostResults struct {
	PostID            uuid.UUID           `json:"post_id"`
	Counts            map[uuid.UUID]int64 `json:"counts"`
	TotalVotes        int64               `json:"total_votes"`
	TurnoutPercentage float64             `json:"turnout_percentage"`
	ComputedAt        time.Time           `json:"computed_at"`
}
