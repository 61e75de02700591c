package testutil

import (
	"bytes"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"royalwager/domain/entities"
)

// Wallet returns a deterministic, valid base58 wallet address derived from seed
func Wallet(seed byte) string {
	return base58.Encode(bytes.Repeat([]byte{seed}, 32))
}

// Signature returns a deterministic, valid base58 transaction signature derived from seed
func Signature(seed byte) entities.Signature {
	return entities.Signature(base58.Encode(bytes.Repeat([]byte{seed}, 64)))
}

// CreateTestWager builds an in-memory PENDING wager with default values
func CreateTestWager(id int64, creatorID string, amount string) *entities.Wager {
	now := time.Now().UTC()
	return &entities.Wager{
		ID:        id,
		CreatorID: creatorID,
		Amount:    decimal.RequireFromString(amount),
		Status:    entities.WagerStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateActiveTestWager builds an ACTIVE wager with both deposits recorded
func CreateActiveTestWager(id int64, creatorID, opponentID string, amount string, activatedAt time.Time) *entities.Wager {
	w := CreateTestWager(id, creatorID, amount)
	creatorSig := Signature(1)
	opponentSig := Signature(2)
	w.OpponentID = &opponentID
	w.CreatorDepositSignature = &creatorSig
	w.OpponentDepositSignature = &opponentSig
	w.Status = entities.WagerStatusActive
	w.ActivatedAt = &activatedAt
	return w
}
