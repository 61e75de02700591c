package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"royalwager/domain/entities"
)

// WagerFilter narrows wager listings
type WagerFilter struct {
	Status   *entities.WagerStatus
	WalletID string
	Limit    int
}

// WagerRepository is the durable store and single source of truth for wagers.
// Every mutating method is a compare-and-swap against the stored row.
type WagerRepository interface {
	// Create inserts a PENDING wager and claims the creator's outstanding slot
	Create(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error)

	// GetByID returns the wager or nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// Join sets the opponent on a PENDING wager and claims their outstanding slot
	Join(ctx context.Context, id int64, opponentID string) (*entities.Wager, error)

	// RecordDeposit writes a party's deposit signature once; recorded is false for a replay
	RecordDeposit(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (w *entities.Wager, recorded bool, err error)

	// Activate moves PENDING to ACTIVE when both deposits exist; activated is false when already ACTIVE
	Activate(ctx context.Context, id int64) (w *entities.Wager, activated bool, err error)

	// CompleteWithWinner moves ACTIVE to COMPLETED; completed is false when the same winner was already recorded
	CompleteWithWinner(ctx context.Context, id int64, winnerID string) (w *entities.Wager, completed bool, err error)

	// ResolveDispute moves DISPUTED to COMPLETED with an operator-chosen winner
	ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error)

	// Cancel moves the wager from the expected status to CANCELLED and releases outstanding slots.
	// Any other current status, CANCELLED included, is INVALID_STATE.
	Cancel(ctx context.Context, id int64, from entities.WagerStatus, reason string) (*entities.Wager, error)

	// MarkDisputed moves ACTIVE to DISPUTED
	MarkDisputed(ctx context.Context, id int64, reason string) (*entities.Wager, error)

	// RecordPayout writes the payout signature once on a COMPLETED wager
	RecordPayout(ctx context.Context, id int64, sig entities.Signature) (w *entities.Wager, recorded bool, err error)

	// RecordRefund writes a party's refund signature once on a CANCELLED wager
	RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (w *entities.Wager, recorded bool, err error)

	// FindByDepositSignature returns the wager holding sig as either deposit, or nil
	FindByDepositSignature(ctx context.Context, sig entities.Signature) (*entities.Wager, error)

	// FindPendingByEscrowAddress returns the PENDING wager funded through address, or nil
	FindPendingByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error)

	// FindLatestByEscrowAddress returns the newest wager of any status funded through address, or nil
	FindLatestByEscrowAddress(ctx context.Context, address string) (*entities.Wager, error)

	// List returns wagers newest first
	List(ctx context.Context, filter WagerFilter) ([]*entities.Wager, error)

	// ListUnsettled returns COMPLETED and CANCELLED wagers that still owe a transfer
	ListUnsettled(ctx context.Context, limit int) ([]*entities.Wager, error)
}

// ProfileRepository maps wallets to player tags
type ProfileRepository interface {
	// GetByWallet returns the profile or nil when none exists
	GetByWallet(ctx context.Context, walletID string) (*entities.PlayerProfile, error)

	// Upsert creates or replaces the wallet's tag
	Upsert(ctx context.Context, walletID string, tag string) (*entities.PlayerProfile, error)
}
