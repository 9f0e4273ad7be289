package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/redis"
)

const resultsTTL = 5 * time.Minute

// ResultsCache mirrors the latest recount per post in Redis for cheap
// dashboard reads. It is write-through and never authoritative: the
// aggregator recounts from the ledger and only then updates the mirror.
type ResultsCache struct {
	client *redis.Client
}

func NewResultsCache(client *redis.Client) *ResultsCache {
	return &ResultsCache{client: client}
}

var _ ports.ResultsCache = (*ResultsCache)(nil)

func key(postID uuid.UUID) string {
	return "results:" + postID.String()
}

func (c *ResultsCache) Set(ctx context.Context, results *domain.PostResults) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := c.client.Set(ctx, key(results.PostID), payload, resultsTTL).Err(); err != nil {
		return fmt.Errorf("cache results: %w", err)
	}
	return nil
}

func (c *ResultsCache) Get(ctx context.Context, postID uuid.UUID) (*domain.PostResults, error) {
	payload, err := c.client.Get(ctx, key(postID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("read cached results: %w", err)
	}
	results := &domain.PostResults{}
	if err := json.Unmarshal(payload, results); err != nil {
		return nil, fmt.Errorf("decode cached results: %w", err)
	}
	return results, nil
}
