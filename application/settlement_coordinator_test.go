package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"royalwager/domain/entities"
	"royalwager/domain/services"
	"royalwager/domain/wagererr"
	"royalwager/events"
)

func newTestCoordinator(t *testing.T, mocks *TestMocks) *SettlementCoordinator {
	calculator, err := services.NewSettlementService(services.DefaultFeeRate)
	require.NoError(t, err)
	return NewSettlementCoordinator(mocks.UoWFactory, calculator, time.Second)
}

func TestSettlementCoordinator_Instructions(t *testing.T) {
	tests := []struct {
		name     string
		wager    *entities.Wager
		expected []entities.TransferInstruction
	}{
		{
			name:  "completed wager owes the winner 2a(1-f)",
			wager: completedWager(TestOpponent),
			expected: []entities.TransferInstruction{{
				WagerID:   TestWagerID,
				Kind:      entities.SettlementKindPayout,
				Party:     entities.PartyOpponent,
				Recipient: TestOpponent,
				Amount:    decimal.RequireFromString("1.9"),
				Fee:       decimal.RequireFromString("0.1"),
			}},
		},
		{
			name:  "cancelled wager refunds each deposit without a fee",
			wager: cancelledWager(),
			expected: []entities.TransferInstruction{
				{WagerID: TestWagerID, Kind: entities.SettlementKindRefund, Party: entities.PartyCreator, Recipient: TestCreator, Amount: TestAmount, Fee: decimal.Zero},
				{WagerID: TestWagerID, Kind: entities.SettlementKindRefund, Party: entities.PartyOpponent, Recipient: TestOpponent, Amount: TestAmount, Fee: decimal.Zero},
			},
		},
		{
			name:     "active wager owes nothing yet",
			wager:    activeWager(TestNow),
			expected: []entities.TransferInstruction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			helper := NewMockHelper(mocks)
			helper.ExpectTransactions()
			helper.ExpectWagerLookup(tt.wager)

			instructions, err := newTestCoordinator(t, mocks).Instructions(context.Background(), TestWagerID)
			require.NoError(t, err)
			require.Len(t, instructions, len(tt.expected))
			for i, expected := range tt.expected {
				got := instructions[i]
				assert.Equal(t, expected.Kind, got.Kind)
				assert.Equal(t, expected.Party, got.Party)
				assert.Equal(t, expected.Recipient, got.Recipient)
				assert.True(t, expected.Amount.Equal(got.Amount), "amount %s != %s", expected.Amount, got.Amount)
				assert.True(t, expected.Fee.Equal(got.Fee), "fee %s != %s", expected.Fee, got.Fee)
				assert.Nil(t, got.RecordedSignature)
			}
		})
	}
}

func TestSettlementCoordinator_RecordPayout(t *testing.T) {
	payoutSig := testSignature(50)

	tests := []struct {
		name         string
		sig          entities.Signature
		setupMocks   func(*TestMocks, *MockHelper)
		expectedCode wagererr.Code
	}{
		{
			name: "records and announces the payout",
			sig:  payoutSig,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				paid := completedWager(TestCreator)
				paid.PayoutSignature = sigPtr(payoutSig)
				mocks.WagerRepo.On("RecordPayout", mock.Anything, TestWagerID, payoutSig).Return(paid, true, nil)
				mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.SettlementRecordedEvent) bool {
					return e.Kind == entities.SettlementKindPayout &&
						e.Recipient == TestCreator &&
						e.Amount.Equal(decimal.RequireFromString("1.9"))
				})).Return(nil)
			},
		},
		{
			name: "replay is silent",
			sig:  payoutSig,
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				paid := completedWager(TestCreator)
				paid.PayoutSignature = sigPtr(payoutSig)
				mocks.WagerRepo.On("RecordPayout", mock.Anything, TestWagerID, payoutSig).Return(paid, false, nil)
			},
		},
		{
			name: "different signature fails loudly",
			sig:  testSignature(51),
			setupMocks: func(mocks *TestMocks, helper *MockHelper) {
				helper.ExpectTransactions()
				mocks.WagerRepo.On("RecordPayout", mock.Anything, TestWagerID, testSignature(51)).
					Return(nil, false, wagererr.New(wagererr.CodeAlreadyPaid, "payout already recorded"))
			},
			expectedCode: wagererr.CodeAlreadyPaid,
		},
		{
			name:         "malformed signature",
			sig:          "not-base58-0OIl",
			setupMocks:   func(mocks *TestMocks, helper *MockHelper) {},
			expectedCode: wagererr.CodeInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := NewTestMocks()
			tt.setupMocks(mocks, NewMockHelper(mocks))

			_, err := newTestCoordinator(t, mocks).RecordPayout(context.Background(), TestWagerID, tt.sig)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, wagererr.CodeOf(err))
			} else {
				require.NoError(t, err)
			}
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestSettlementCoordinator_RecordRefund(t *testing.T) {
	refundSig := testSignature(60)

	t.Run("records the refund for one party", func(t *testing.T) {
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		helper.ExpectTransactions()
		refunded := cancelledWager()
		refunded.OpponentRefundSignature = sigPtr(refundSig)
		mocks.WagerRepo.On("RecordRefund", mock.Anything, TestWagerID, entities.PartyOpponent, refundSig).Return(refunded, true, nil)
		mocks.EventPublisher.On("Publish", mock.MatchedBy(func(e events.SettlementRecordedEvent) bool {
			return e.Kind == entities.SettlementKindRefund && e.Recipient == TestOpponent && e.Amount.Equal(TestAmount)
		})).Return(nil)

		w, err := newTestCoordinator(t, mocks).RecordRefund(context.Background(), TestWagerID, entities.PartyOpponent, refundSig)
		require.NoError(t, err)
		assert.Equal(t, refundSig, *w.OpponentRefundSignature)
		mocks.AssertAllExpectations(t)
	})

	t.Run("unknown party", func(t *testing.T) {
		mocks := NewTestMocks()
		_, err := newTestCoordinator(t, mocks).RecordRefund(context.Background(), TestWagerID, "house", refundSig)
		assert.Equal(t, wagererr.CodeInvalidParty, wagererr.CodeOf(err))
	})
}

func TestSettlementCoordinator_PendingSettlements(t *testing.T) {
	mocks := NewTestMocks()
	helper := NewMockHelper(mocks)
	helper.ExpectTransactions()

	partlyRefunded := cancelledWager()
	partlyRefunded.ID = 2
	partlyRefunded.CreatorRefundSignature = sigPtr(testSignature(70))
	mocks.WagerRepo.On("ListUnsettled", mock.Anything, 100).Return([]*entities.Wager{completedWager(TestCreator), partlyRefunded}, nil)

	pending, err := newTestCoordinator(t, mocks).PendingSettlements(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, entities.SettlementKindPayout, pending[0].Kind)
	assert.Equal(t, entities.SettlementKindRefund, pending[1].Kind)
	assert.Equal(t, entities.PartyOpponent, pending[1].Party)
	mocks.AssertAllExpectations(t)
}
