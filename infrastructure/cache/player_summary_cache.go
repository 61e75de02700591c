package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
)

// PlayerSummaryCache stores display-only player summaries as JSON strings.
//
// Key schema:
//
//	player:summary:{tag} - JSON encoded PlayerSummary
type PlayerSummaryCache struct {
	rdb *redis.Client
}

// NewPlayerSummaryCache creates a PlayerSummaryCache backed by the given Client
func NewPlayerSummaryCache(c *Client) *PlayerSummaryCache {
	return &PlayerSummaryCache{rdb: c.Underlying()}
}

func playerSummaryKey(tag string) string { return "player:summary:" + tag }

// Get returns the cached summary, or nil on a miss
func (pc *PlayerSummaryCache) Get(ctx context.Context, tag string) (*entities.PlayerSummary, error) {
	data, err := pc.rdb.Get(ctx, playerSummaryKey(tag)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get player summary %s: %w", tag, err)
	}

	var summary entities.PlayerSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("redis: unmarshal player summary %s: %w", tag, err)
	}
	return &summary, nil
}

// Set stores the summary under its tag for ttl
func (pc *PlayerSummaryCache) Set(ctx context.Context, summary *entities.PlayerSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal player summary %s: %w", summary.Tag, err)
	}
	if err := pc.rdb.Set(ctx, playerSummaryKey(summary.Tag), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set player summary %s: %w", summary.Tag, err)
	}
	return nil
}

// Compile-time interface check.
var _ interfaces.PlayerSummaryCache = (*PlayerSummaryCache)(nil)
