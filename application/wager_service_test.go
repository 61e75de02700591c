package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/wagererr"
	"royalwager/events"
)

func TestWagerService_CreateWager(t *testing.T) {
	tests := []struct {
		name         string
		creatorID    string
		amount       decimal.Decimal
		setupMocks   func(*TestMocks, *MockHelper)
		expectedCode wagererr.Code
	}{
		{
			name:      "creates and publishes",
			creatorID: TestCreator,
			amount:    TestAmount,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				mocks.WagerRepo.On("Create", mock.Anything, TestCreator, TestAmount, (*string)(nil)).Return(pendingWager(), nil)
				helper.ExpectEventPublish("events.WagerStateChangeEvent")
			},
		},
		{
			name:         "rejects malformed wallet",
			creatorID:    "not-a-wallet!",
			amount:       TestAmount,
			setupMocks:   func(mocks *TestMocks, helper *MockHelper) {},
			expectedCode: wagererr.CodeInvalidWallet,
		},
		{
			name:         "rejects zero amount",
			creatorID:    TestCreator,
			amount:       decimal.Zero,
			setupMocks:   func(mocks *TestMocks, helper *MockHelper) {},
			expectedCode: wagererr.CodeInvalidAmount,
		},
		{
			name:      "outstanding wager passes through",
			creatorID: TestCreator,
			amount:    TestAmount,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				mocks.WagerRepo.On("Create", mock.Anything, TestCreator, TestAmount, (*string)(nil)).
					Return(nil, wagererr.New(wagererr.CodeDuplicateOutstanding, "already has one"))
			},
			expectedCode: wagererr.CodeDuplicateOutstanding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			tt.setupMocks(mocks, NewMockHelper(mocks))
			svc := newTestWagerService(mocks, 0)

			w, err := svc.CreateWager(context.Background(), tt.creatorID, tt.amount, nil)
			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
				assert.Nil(t, w)
			} else {
				require.NoError(t, err)
				assert.Equal(t, entities.WagerStatusPending, w.Status)
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestWagerService_JoinWager(t *testing.T) {
	t.Run("opponent joins a pending wager", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(pendingWager())
		mocks.WagerRepo.On("Join", mock.Anything, TestWagerID, TestOpponent).Return(joinedWager(), nil)
		mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.WagerStateChangeEvent) bool {
			return e.Reason == "joined" && e.OpponentID != nil && *e.OpponentID == TestOpponent
		})).Return(nil)

		w, err := newTestWagerService(mocks, 0).JoinWager(context.Background(), TestWagerID, TestOpponent)
		require.NoError(t, err)
		assert.True(t, w.HasOpponent())
		mocks.AssertAllExpectations(t)
	})

	tests := []struct {
		name         string
		wager        *entities.Wager
		opponentID   string
		expectedCode wagererr.Code
	}{
		{
			name:         "creator cannot join their own wager",
			wager:        pendingWager(),
			opponentID:   TestCreator,
			expectedCode: wagererr.CodeSelfJoin,
		},
		{
			name:         "second opponent is turned away",
			wager:        joinedWager(),
			opponentID:   TestOutsider,
			expectedCode: wagererr.CodeAlreadyJoined,
		},
		{
			name:         "cancelled wager cannot be joined",
			wager:        func() *entities.Wager { w := pendingWager(); w.Status = entities.WagerStatusCancelled; return w }(),
			opponentID:   TestOpponent,
			expectedCode: wagererr.CodeInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			helper := NewMockHelper(mocks)
			helper.ExpectTransactions()
			helper.ExpectWagerLookup(tt.wager)

			_, err := newTestWagerService(mocks, 0).JoinWager(context.Background(), TestWagerID, tt.opponentID)
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
			mocks.WagerRepo.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestWagerService_GetWager_NotFound(t *testing.T) {
	mocks := NewTestMocks()
	NewMockHelper(mocks).ExpectTransactions()
	mocks.WagerRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

	_, err := newTestWagerService(mocks, 0).GetWager(context.Background(), 404)
	assert.Equal(t, wagererr.CodeNotFound, wagererr.CodeOf(err))
}

func TestWagerService_ListWagers(t *testing.T) {
	mocks := NewTestMocks()
	NewMockHelper(mocks).ExpectTransactions()
	status := entities.WagerStatusActive
	filter := interfaces.WagerFilter{Status: &status, WalletID: TestCreator, Limit: 10}
	mocks.WagerRepo.On("List", mock.Anything, filter).Return([]*entities.Wager{activeWager(TestNow)}, nil)

	wagers, err := newTestWagerService(mocks, 0).ListWagers(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, wagers, 1)

	_, err = newTestWagerService(mocks, 0).ListWagers(context.Background(), interfaces.WagerFilter{WalletID: "bad"})
	assert.Equal(t, wagererr.CodeInvalidWallet, wagererr.CodeOf(err))
}

func TestWagerService_VerifyWager(t *testing.T) {
	activatedAt := TestNow.Add(-20 * time.Minute)

	tests := []struct {
		name            string
		setupMocks      func(*TestMocks, *MockHelper)
		limit           int
		expectedOutcome entities.VerificationOutcome
		expectedWinner  string
		expectedCode    wagererr.Code
	}{
		{
			name: "creator wins two straight and the wager completes",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, 10, 3, 1),
					match(activatedAt, 5, 2, 0),
				})
				mocks.WagerRepo.On("CompleteWithWinner", mock.Anything, TestWagerID, TestCreator).
					Return(completedWager(TestCreator), true, nil)
				mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.WagerStateChangeEvent) bool {
					return e.NewStatus == entities.WagerStatusCompleted && e.OldStatus == entities.WagerStatusActive
				})).Return(nil)
			},
			expectedOutcome: entities.OutcomeWinnerDetermined,
			expectedWinner:  TestCreator,
		},
		{
			name: "opponent wins the deciding third game",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, 15, 0, 1),
					match(activatedAt, 10, 3, 0),
					match(activatedAt, 5, 1, 2),
				})
				mocks.WagerRepo.On("CompleteWithWinner", mock.Anything, TestWagerID, TestOpponent).
					Return(completedWager(TestOpponent), true, nil)
				helper.ExpectEventPublish("events.WagerStateChangeEvent")
			},
			expectedOutcome: entities.OutcomeWinnerDetermined,
			expectedWinner:  TestOpponent,
		},
		{
			name: "replayed completion publishes nothing",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, 10, 1, 0),
					match(activatedAt, 5, 1, 0),
				})
				mocks.WagerRepo.On("CompleteWithWinner", mock.Anything, TestWagerID, TestCreator).
					Return(completedWager(TestCreator), false, nil)
			},
			expectedOutcome: entities.OutcomeWinnerDetermined,
			expectedWinner:  TestCreator,
		},
		{
			name: "one all waits for the third game",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, 10, 0, 1),
					match(activatedAt, 5, 1, 0),
				})
			},
			expectedOutcome: entities.OutcomePending,
		},
		{
			name: "matches before activation are ignored",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, -5, 3, 0),
					match(activatedAt, -10, 3, 0),
				})
			},
			expectedOutcome: entities.OutcomePending,
		},
		{
			name: "already completed skips the oracle",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(completedWager(TestOpponent))
				helper.expectProfile(TestOpponent, TestOpponentTag)
			},
			expectedOutcome: entities.OutcomeAlreadyCompleted,
			expectedWinner:  TestOpponent,
		},
		{
			name: "missing profile",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, "")
			},
			expectedCode: wagererr.CodeProfileMissing,
		},
		{
			name: "pending wager cannot be verified",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(joinedWager())
			},
			expectedCode: wagererr.CodeInvalidState,
		},
		{
			name: "oracle outage",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				mocks.Oracle.On("FetchRecentMatches", mock.Anything, TestCreatorTag).
					Return(nil, wagererr.New(wagererr.CodeOracleUnavailable, "upstream 503"))
			},
			expectedCode: wagererr.CodeOracleUnavailable,
		},
		{
			name: "conflicting winner is surfaced",
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{
					match(activatedAt, 10, 1, 0),
					match(activatedAt, 5, 1, 0),
				})
				mocks.WagerRepo.On("CompleteWithWinner", mock.Anything, TestWagerID, TestCreator).
					Return(nil, false, wagererr.New(wagererr.CodeWinnerConflict, "already won by opponent"))
			},
			expectedCode: wagererr.CodeWinnerConflict,
		},
		{
			name:  "rate limited",
			limit: 5,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				mocks.RateLimiter.On("Allow", mock.Anything, "verify:1", 5, time.Minute).Return(false, nil)
			},
			expectedCode: wagererr.CodeRateLimited,
		},
		{
			name:  "limiter outage does not block verification",
			limit: 5,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				mocks.RateLimiter.On("Allow", mock.Anything, "verify:1", 5, time.Minute).Return(false, errors.New("redis down"))
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog(nil)
			},
			expectedOutcome: entities.OutcomePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			tt.setupMocks(mocks, NewMockHelper(mocks))
			svc := newTestWagerService(mocks, tt.limit)

			result, err := svc.VerifyWager(context.Background(), TestWagerID)
			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedOutcome, result.Outcome)
				if tt.expectedWinner != "" {
					require.NotNil(t, result.WinnerID)
					assert.Equal(t, tt.expectedWinner, *result.WinnerID)
				} else {
					assert.Nil(t, result.WinnerID)
				}
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestWagerService_VerifyWager_AlreadyCompleted(t *testing.T) {
	t.Run("reports the winner's tag", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(completedWager(TestCreator))
		helper.expectProfile(TestCreator, TestCreatorTag)

		result, err := newTestWagerService(mocks, 0).VerifyWager(context.Background(), TestWagerID)
		require.NoError(t, err)
		require.NotNil(t, result.WinnerTag)
		assert.Equal(t, TestCreatorTag, *result.WinnerTag)
		mocks.Oracle.AssertNotCalled(t, "FetchRecentMatches", mock.Anything, mock.Anything)
	})

	t.Run("profile lookup failure leaves the tag empty", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(completedWager(TestOpponent))
		mocks.ProfileRepo.On("GetByWallet", mock.Anything, TestOpponent).Return(nil, errors.New("connection reset"))

		result, err := newTestWagerService(mocks, 0).VerifyWager(context.Background(), TestWagerID)
		require.NoError(t, err)
		assert.Equal(t, entities.OutcomeAlreadyCompleted, result.Outcome)
		require.NotNil(t, result.WinnerID)
		assert.Equal(t, TestOpponent, *result.WinnerID)
		assert.Nil(t, result.WinnerTag)
	})
}

func TestWagerService_VerifyWager_Timeout(t *testing.T) {
	tests := []struct {
		name            string
		minutesActive   int
		matches         func(activatedAt time.Time) []entities.MatchRecord
		expectedOutcome entities.VerificationOutcome
		expectTimedOut  bool
	}{
		{
			name:            "61 minutes without play times out",
			minutesActive:   61,
			matches:         func(time.Time) []entities.MatchRecord { return nil },
			expectedOutcome: entities.OutcomeTimedOut,
			expectTimedOut:  true,
		},
		{
			name:            "59 minutes without play is still pending",
			minutesActive:   59,
			matches:         func(time.Time) []entities.MatchRecord { return nil },
			expectedOutcome: entities.OutcomePending,
		},
		{
			name:          "one match before the timeout needs review",
			minutesActive: 75,
			matches: func(activatedAt time.Time) []entities.MatchRecord {
				return []entities.MatchRecord{match(activatedAt, 3, 2, 1)}
			},
			expectedOutcome: entities.OutcomeNeedsReview,
			expectTimedOut:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activatedAt := TestNow.Add(-time.Duration(tt.minutesActive) * time.Minute)
			mocks := NewTestMocks()
			helper := NewMockHelper(mocks)
			helper.ExpectTransactions()
			helper.ExpectWagerLookup(activeWager(activatedAt))
			helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
			helper.ExpectBattleLog(tt.matches(activatedAt))

			result, err := newTestWagerService(mocks, 0).VerifyWager(context.Background(), TestWagerID)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOutcome, result.Outcome)
			assert.Equal(t, tt.expectTimedOut, result.IsTimedOut)
			mocks.WagerRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestWagerService_CancelWager(t *testing.T) {
	tests := []struct {
		name         string
		requesterID  string
		setupMocks   func(*TestMocks, *MockHelper)
		expectedCode wagererr.Code
	}{
		{
			name:        "creator cancels pending wager",
			requesterID: TestCreator,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(pendingWager())
				cancelled := pendingWager()
				cancelled.Status = entities.WagerStatusCancelled
				mocks.WagerRepo.On("Cancel", mock.Anything, TestWagerID, entities.WagerStatusPending, "party_request").
					Return(cancelled, nil)
				helper.ExpectEventPublish("events.WagerStateChangeEvent")
			},
		},
		{
			name:        "outsider cannot cancel",
			requesterID: TestOutsider,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(joinedWager())
			},
			expectedCode: wagererr.CodeNotParty,
		},
		{
			name:        "active wager before the timeout",
			requesterID: TestOpponent,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(TestNow.Add(-30 * time.Minute)))
			},
			expectedCode: wagererr.CodeNotYetEligible,
		},
		{
			name:        "active wager after the timeout with no matches",
			requesterID: TestOpponent,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(TestNow.Add(-61 * time.Minute)))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog(nil)
				mocks.WagerRepo.On("Cancel", mock.Anything, TestWagerID, entities.WagerStatusActive, "timeout_no_matches").
					Return(cancelledWager(), nil)
				helper.ExpectEventPublish("events.WagerStateChangeEvent")
			},
		},
		{
			name:        "active wager after the timeout with a match played",
			requesterID: TestCreator,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				activatedAt := TestNow.Add(-61 * time.Minute)
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(activeWager(activatedAt))
				helper.ExpectProfiles(TestCreatorTag, TestOpponentTag)
				helper.ExpectBattleLog([]entities.MatchRecord{match(activatedAt, 2, 1, 0)})
			},
			expectedCode: wagererr.CodeMatchesPlayed,
		},
		{
			name:        "completed wager cannot be cancelled",
			requesterID: TestCreator,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(completedWager(TestCreator))
			},
			expectedCode: wagererr.CodeInvalidState,
		},
		{
			name:        "lost race to another transition",
			requesterID: TestCreator,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(pendingWager())
				mocks.WagerRepo.On("Cancel", mock.Anything, TestWagerID, entities.WagerStatusPending, "party_request").
					Return(nil, wagererr.New(wagererr.CodeInvalidState, "wager is ACTIVE"))
			},
			expectedCode: wagererr.CodeInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			tt.setupMocks(mocks, NewMockHelper(mocks))

			w, err := newTestWagerService(mocks, 0).CancelWager(context.Background(), TestWagerID, tt.requesterID)
			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, entities.WagerStatusCancelled, w.Status)
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestWagerService_OperatorActions(t *testing.T) {
	t.Run("dispute then resolve", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()

		active := activeWager(TestNow.Add(-time.Hour))
		disputed := activeWager(TestNow.Add(-time.Hour))
		disputed.Status = entities.WagerStatusDisputed
		mocks.WagerRepo.On("GetByID", mock.Anything, TestWagerID).Return(active, nil).Once()
		mocks.WagerRepo.On("GetByID", mock.Anything, TestWagerID).Return(disputed, nil).Once()
		mocks.WagerRepo.On("MarkDisputed", mock.Anything, TestWagerID, "screenshot mismatch").Return(disputed, nil)
		mocks.WagerRepo.On("ResolveDispute", mock.Anything, TestWagerID, TestOpponent).Return(completedWager(TestOpponent), nil)
		helper.ExpectEventPublish("events.WagerStateChangeEvent")

		svc := newTestWagerService(mocks, 0)
		w, err := svc.DisputeWager(context.Background(), TestWagerID, "screenshot mismatch")
		require.NoError(t, err)
		assert.Equal(t, entities.WagerStatusDisputed, w.Status)

		w, err = svc.ResolveDispute(context.Background(), TestWagerID, TestOpponent)
		require.NoError(t, err)
		assert.Equal(t, TestOpponent, *w.WinnerID)
		mocks.EventPublisher.AssertNumberOfCalls(t, "Publish", 2)
		mocks.AssertAllExpectations(t)
	})

	t.Run("operator cancels disputed wager", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()

		disputed := activeWager(TestNow.Add(-time.Hour))
		disputed.Status = entities.WagerStatusDisputed
		helper.ExpectWagerLookup(disputed)
		mocks.WagerRepo.On("Cancel", mock.Anything, TestWagerID, entities.WagerStatusDisputed, CancelReasonOperator).
			Return(cancelledWager(), nil)
		helper.ExpectEventPublish("events.WagerStateChangeEvent")

		w, err := newTestWagerService(mocks, 0).OperatorCancel(context.Background(), TestWagerID, "")
		require.NoError(t, err)
		assert.Equal(t, entities.WagerStatusCancelled, w.Status)
		mocks.AssertAllExpectations(t)
	})

	t.Run("operator cannot cancel a completed wager", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(completedWager(TestCreator))

		_, err := newTestWagerService(mocks, 0).OperatorCancel(context.Background(), TestWagerID, "refund please")
		assert.Equal(t, wagererr.CodeInvalidState, wagererr.CodeOf(err))
	})

	t.Run("only active wagers can be disputed", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(pendingWager())

		_, err := newTestWagerService(mocks, 0).DisputeWager(context.Background(), TestWagerID, "too early")
		assert.Equal(t, wagererr.CodeInvalidState, wagererr.CodeOf(err))
		mocks.WagerRepo.AssertNotCalled(t, "MarkDisputed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resolve requires a disputed wager and a party as winner", func(t *testing.T) {
		disputed := activeWager(TestNow.Add(-time.Hour))
		disputed.Status = entities.WagerStatusDisputed

		tests := []struct {
			name         string
			wager        *entities.Wager
			winnerID     string
			expectedCode wagererr.Code
		}{
			{"active wager", activeWager(TestNow.Add(-time.Hour)), TestCreator, wagererr.CodeInvalidState},
			{"completed wager replay", completedWager(TestCreator), TestCreator, wagererr.CodeInvalidState},
			{"outsider as winner", disputed, TestOutsider, wagererr.CodeInvalidWinner},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mocks := NewTestMocks()
				helper := NewMockHelper(mocks)
				helper.ExpectTransactions()
				helper.ExpectWagerLookup(tt.wager)

				_, err := newTestWagerService(mocks, 0).ResolveDispute(context.Background(), TestWagerID, tt.winnerID)
				assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
				mocks.WagerRepo.AssertNotCalled(t, "ResolveDispute", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("operator cannot cancel an already cancelled wager", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		helper.ExpectWagerLookup(cancelledWager())

		w, err := newTestWagerService(mocks, 0).OperatorCancel(context.Background(), TestWagerID, "again")
		require.Error(t, err)
		assert.Nil(t, w)
		assert.Equal(t, wagererr.CodeInvalidState, wagererr.CodeOf(err))
		mocks.WagerRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resolve rejects a malformed winner", func(t *testing.T) {
		mocks := NewTestMocks()
		_, err := newTestWagerService(mocks, 0).ResolveDispute(context.Background(), TestWagerID, "nobody")
		assert.Equal(t, wagererr.CodeInvalidWinner, wagererr.CodeOf(err))
	})
}
