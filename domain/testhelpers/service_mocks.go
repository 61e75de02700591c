package testhelpers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/events"
)

// MockMatchOracle is a mock implementation of MatchOracle
type MockMatchOracle struct {
	mock.Mock
}

func (m *MockMatchOracle) FetchRecentMatches(ctx context.Context, tag string) ([]entities.MatchRecord, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MatchRecord), args.Error(1)
}

func (m *MockMatchOracle) FetchPlayerSummary(ctx context.Context, tag string) (*entities.PlayerSummary, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerSummary), args.Error(1)
}

// MockPlayerSummaryCache is a mock implementation of PlayerSummaryCache
type MockPlayerSummaryCache struct {
	mock.Mock
}

func (m *MockPlayerSummaryCache) Get(ctx context.Context, tag string) (*entities.PlayerSummary, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerSummary), args.Error(1)
}

func (m *MockPlayerSummaryCache) Set(ctx context.Context, summary *entities.PlayerSummary, ttl time.Duration) error {
	args := m.Called(ctx, summary, ttl)
	return args.Error(0)
}

// MockRateLimiter is a mock implementation of RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork hands out the given mocks and records lifecycle calls
type MockUnitOfWork struct {
	mock.Mock
	WagerRepo      *MockWagerRepository
	ProfileRepo    *MockProfileRepository
	EventPublisher *MockEventPublisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) WagerRepository() interfaces.WagerRepository {
	return m.WagerRepo
}

func (m *MockUnitOfWork) ProfileRepository() interfaces.ProfileRepository {
	return m.ProfileRepo
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.EventPublisher
}

// MockUnitOfWorkFactory always returns the same unit of work
type MockUnitOfWorkFactory struct {
	UnitOfWork *MockUnitOfWork
}

func (f *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.UnitOfWork
}
