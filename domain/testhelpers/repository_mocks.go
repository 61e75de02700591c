package testhelpers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
)

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error) {
	args := m.Called(ctx, creatorID, amount, escrowAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) Join(ctx context.Context, id int64, opponentID string) (*entities.Wager, error) {
	args := m.Called(ctx, id, opponentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) RecordDeposit(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, bool, error) {
	args := m.Called(ctx, id, party, sig)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Wager), args.Bool(1), args.Error(2)
}

func (m *MockWagerRepository) Activate(ctx context.Context, id int64) (*entities.Wager, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Wager), args.Bool(1), args.Error(2)
}

func (m *MockWagerRepository) CompleteWithWinner(ctx context.Context, id int64, winnerID string) (*entities.Wager, bool, error) {
	args := m.Called(ctx, id, winnerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Wager), args.Bool(1), args.Error(2)
}

func (m *MockWagerRepository) ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error) {
	args := m.Called(ctx, id, winnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) Cancel(ctx context.Context, id int64, from entities.WagerStatus, reason string) (*entities.Wager, error) {
	args := m.Called(ctx, id, from, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) MarkDisputed(ctx context.Context, id int64, reason string) (*entities.Wager, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) RecordPayout(ctx context.Context, id int64, sig entities.Signature) (*entities.Wager, bool, error) {
	args := m.Called(ctx, id, sig)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Wager), args.Bool(1), args.Error(2)
}

func (m *MockWagerRepository) RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, bool, error) {
	args := m.Called(ctx, id, party, sig)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Wager), args.Bool(1), args.Error(2)
}

func (m *MockWagerRepository) FindByDepositSignature(ctx context.Context, sig entities.Signature) (*entities.Wager, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) FindPendingByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) FindLatestByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) List(ctx context.Context, filter interfaces.WagerFilter) ([]*entities.Wager, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListUnsettled(ctx context.Context, limit int) ([]*entities.Wager, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wager), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByWallet(ctx context.Context, walletID string) (*entities.PlayerProfile, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerProfile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, walletID string, tag string) (*entities.PlayerProfile, error) {
	args := m.Called(ctx, walletID, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PlayerProfile), args.Error(1)
}
