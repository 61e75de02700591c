package interfaces

import (
	"context"
	"time"

	"royalwager/domain/entities"
	"royalwager/events"
)

// MatchOracle fetches normalized match history from the game API
type MatchOracle interface {
	// FetchRecentMatches returns the player's recent battles, newest first
	FetchRecentMatches(ctx context.Context, tag string) ([]entities.MatchRecord, error)

	// FetchPlayerSummary returns display-only player statistics
	FetchPlayerSummary(ctx context.Context, tag string) (*entities.PlayerSummary, error)
}

// PlayerSummaryCache is an advisory cache for display-only player data
type PlayerSummaryCache interface {
	Get(ctx context.Context, tag string) (*entities.PlayerSummary, error)
	Set(ctx context.Context, summary *entities.PlayerSummary, ttl time.Duration) error
}

// RateLimiter admits or rejects keyed requests within a window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// UnitOfWork scopes repositories and event publishing to one database transaction
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	WagerRepository() WagerRepository
	ProfileRepository() ProfileRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
