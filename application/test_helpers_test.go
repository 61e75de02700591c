package application

import (
	"bytes"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"royalwager/domain/entities"
	"royalwager/domain/services"
	"royalwager/domain/testhelpers"
)

const (
	TestWagerID     = int64(1)
	TestCreatorTag  = "#2PPQ"
	TestOpponentTag = "#8QVY"
)

var (
	TestCreator  = testWallet(1)
	TestOpponent = testWallet(2)
	TestOutsider = testWallet(3)
	TestEscrow   = testWallet(9)
	TestAmount   = decimal.RequireFromString("1.0")
	TestNow      = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testWallet(seed byte) string {
	return base58.Encode(bytes.Repeat([]byte{seed}, 32))
}

func testSignature(seed byte) entities.Signature {
	return entities.Signature(base58.Encode(bytes.Repeat([]byte{seed}, 64)))
}

// TestMocks holds all mocks for easy access
type TestMocks struct {
	UnitOfWork     *testhelpers.MockUnitOfWork
	UoWFactory     *testhelpers.MockUnitOfWorkFactory
	WagerRepo      *testhelpers.MockWagerRepository
	ProfileRepo    *testhelpers.MockProfileRepository
	EventPublisher *testhelpers.MockEventPublisher
	Oracle         *testhelpers.MockMatchOracle
	RateLimiter    *testhelpers.MockRateLimiter
	SummaryCache   *testhelpers.MockPlayerSummaryCache
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	m := &TestMocks{
		WagerRepo:      new(testhelpers.MockWagerRepository),
		ProfileRepo:    new(testhelpers.MockProfileRepository),
		EventPublisher: new(testhelpers.MockEventPublisher),
		Oracle:         new(testhelpers.MockMatchOracle),
		RateLimiter:    new(testhelpers.MockRateLimiter),
		SummaryCache:   new(testhelpers.MockPlayerSummaryCache),
	}
	m.UnitOfWork = &testhelpers.MockUnitOfWork{
		WagerRepo:      m.WagerRepo,
		ProfileRepo:    m.ProfileRepo,
		EventPublisher: m.EventPublisher,
	}
	m.UoWFactory = &testhelpers.MockUnitOfWorkFactory{UnitOfWork: m.UnitOfWork}
	return m
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.UnitOfWork.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.ProfileRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.Oracle.AssertExpectations(t)
	m.RateLimiter.AssertExpectations(t)
	m.SummaryCache.AssertExpectations(t)
}

// MockHelper provides common mock setup patterns
type MockHelper struct {
	mocks *TestMocks
}

// NewMockHelper creates a new mock helper
func NewMockHelper(mocks *TestMocks) *MockHelper {
	return &MockHelper{mocks: mocks}
}

// ExpectTransactions allows any number of units of work to begin, commit and roll back
func (h *MockHelper) ExpectTransactions() {
	h.mocks.UnitOfWork.On("Begin", mock.Anything).Return(nil)
	h.mocks.UnitOfWork.On("Commit").Return(nil).Maybe()
	h.mocks.UnitOfWork.On("Rollback").Return(nil)
}

// ExpectWagerLookup sets up wager lookup expectations
func (h *MockHelper) ExpectWagerLookup(w *entities.Wager) {
	h.mocks.WagerRepo.On("GetByID", mock.Anything, w.ID).Return(w, nil)
}

// ExpectProfiles sets up profile lookups for both parties
func (h *MockHelper) ExpectProfiles(creatorTag, opponentTag string) {
	h.expectProfile(TestCreator, creatorTag)
	h.expectProfile(TestOpponent, opponentTag)
}

func (h *MockHelper) expectProfile(wallet, tag string) {
	if tag == "" {
		h.mocks.ProfileRepo.On("GetByWallet", mock.Anything, wallet).Return(nil, nil)
		return
	}
	h.mocks.ProfileRepo.On("GetByWallet", mock.Anything, wallet).Return(&entities.PlayerProfile{WalletID: wallet, Tag: tag}, nil)
}

// ExpectBattleLog returns matches for the creator's tag
func (h *MockHelper) ExpectBattleLog(matches []entities.MatchRecord) {
	h.mocks.Oracle.On("FetchRecentMatches", mock.Anything, TestCreatorTag).Return(matches, nil)
}

// ExpectEventPublish sets up event publishing expectations
func (h *MockHelper) ExpectEventPublish(eventType string) {
	h.mocks.EventPublisher.On("Publish", mock.AnythingOfType(eventType)).Return(nil)
}

func newTestWagerService(mocks *TestMocks, limit int) *WagerService {
	svc := NewWagerService(
		mocks.UoWFactory,
		mocks.Oracle,
		mocks.RateLimiter,
		services.NewMatchVerificationService(services.DefaultVerificationPolicy()),
		nil,
		WagerServiceOptions{RepositoryTimeout: time.Second, VerifyRateLimitPerMinute: limit},
	)
	svc.now = func() time.Time { return TestNow }
	return svc
}

func strPtr(s string) *string { return &s }

func sigPtr(s entities.Signature) *entities.Signature { return &s }

func pendingWager() *entities.Wager {
	return &entities.Wager{
		ID:        TestWagerID,
		CreatorID: TestCreator,
		Amount:    TestAmount,
		Status:    entities.WagerStatusPending,
		CreatedAt: TestNow.Add(-2 * time.Hour),
	}
}

func joinedWager() *entities.Wager {
	w := pendingWager()
	w.OpponentID = strPtr(TestOpponent)
	w.EscrowAddress = strPtr(TestEscrow)
	return w
}

func activeWager(activatedAt time.Time) *entities.Wager {
	w := joinedWager()
	w.Status = entities.WagerStatusActive
	w.CreatorDepositSignature = sigPtr(testSignature(10))
	w.OpponentDepositSignature = sigPtr(testSignature(11))
	w.ActivatedAt = &activatedAt
	return w
}

func completedWager(winner string) *entities.Wager {
	w := activeWager(TestNow.Add(-30 * time.Minute))
	w.Status = entities.WagerStatusCompleted
	w.WinnerID = strPtr(winner)
	completedAt := TestNow.Add(-10 * time.Minute)
	w.CompletedAt = &completedAt
	return w
}

func cancelledWager() *entities.Wager {
	w := activeWager(TestNow.Add(-90 * time.Minute))
	w.Status = entities.WagerStatusCancelled
	return w
}

// match builds a creator-perspective battle played minutesAfter activation
func match(activatedAt time.Time, minutesAfter int, creatorCrowns, opponentCrowns int) entities.MatchRecord {
	return entities.MatchRecord{
		OccurredAt:    activatedAt.Add(time.Duration(minutesAfter) * time.Minute),
		SelfTag:       TestCreatorTag,
		OpponentTags:  []string{TestOpponentTag},
		SelfScore:     creatorCrowns,
		OpponentScore: opponentCrowns,
	}
}
