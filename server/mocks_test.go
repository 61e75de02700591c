package server

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"royalwager/application"
	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
)

type MockWagerOperations struct {
	mock.Mock
}

func (m *MockWagerOperations) CreateWager(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error) {
	args := m.Called(ctx, creatorID, amount, escrowAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) GetWager(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) ListWagers(ctx context.Context, filter interfaces.WagerFilter) ([]*entities.Wager, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) JoinWager(ctx context.Context, id int64, opponentID string) (*entities.Wager, error) {
	args := m.Called(ctx, id, opponentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) VerifyWager(ctx context.Context, id int64) (*entities.VerificationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerificationResult), args.Error(1)
}

func (m *MockWagerOperations) CancelWager(ctx context.Context, id int64, requesterID string) (*entities.Wager, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) DisputeWager(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error) {
	args := m.Called(ctx, id, winnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerOperations) OperatorCancel(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

type MockSettlementOperations struct {
	mock.Mock
}

func (m *MockSettlementOperations) Instructions(ctx context.Context, id int64) ([]entities.TransferInstruction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TransferInstruction), args.Error(1)
}

func (m *MockSettlementOperations) RecordPayout(ctx context.Context, id int64, sig entities.Signature) (*entities.Wager, error) {
	args := m.Called(ctx, id, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockSettlementOperations) RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, error) {
	args := m.Called(ctx, id, party, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockSettlementOperations) PendingSettlements(ctx context.Context, limit int) ([]entities.TransferInstruction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TransferInstruction), args.Error(1)
}

type MockProfileOperations struct {
	mock.Mock
}

func (m *MockProfileOperations) GetProfile(ctx context.Context, walletID string) (*entities.PlayerProfile, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerProfile), args.Error(1)
}

func (m *MockProfileOperations) UpsertProfile(ctx context.Context, walletID string, rawTag string) (*entities.PlayerProfile, error) {
	args := m.Called(ctx, walletID, rawTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerProfile), args.Error(1)
}

func (m *MockProfileOperations) GetPlayerSummary(ctx context.Context, rawTag string) (*entities.PlayerSummary, error) {
	args := m.Called(ctx, rawTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerSummary), args.Error(1)
}

type MockDepositIngestor struct {
	mock.Mock
}

func (m *MockDepositIngestor) IngestBatch(ctx context.Context, notifications []application.DepositNotification) ([]application.IngestResult, error) {
	args := m.Called(ctx, notifications)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]application.IngestResult), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
