package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"royalwager/domain/wagererr"
)

// Party identifies one side of a wager
type Party string

const (
	PartyCreator  Party = "creator"
	PartyOpponent Party = "opponent"
)

// ParseParty converts a raw value into a Party
func ParseParty(raw string) (Party, error) {
	switch Party(raw) {
	case PartyCreator, PartyOpponent:
		return Party(raw), nil
	default:
		return "", wagererr.New(wagererr.CodeInvalidParty, "unknown party %q", raw)
	}
}

// Other returns the opposite side
func (p Party) Other() Party {
	if p == PartyCreator {
		return PartyOpponent
	}
	return PartyCreator
}

// Signature is an on-chain transaction reference (base58, 64 bytes)
type Signature string

// DepositRef records a confirmed deposit for one party
type DepositRef struct {
	Party     Party     `json:"party"`
	Signature Signature `json:"signature"`
}

// SettlementKind distinguishes payouts from refunds
type SettlementKind string

const (
	SettlementKindPayout SettlementKind = "payout"
	SettlementKindRefund SettlementKind = "refund"
)

// SettlementRef records a completed transfer out of escrow
type SettlementRef struct {
	Kind      SettlementKind `json:"kind"`
	Party     Party          `json:"party"`
	Signature Signature      `json:"signature"`
}

// Wager represents a two-party staked contest
type Wager struct {
	ID                       int64           `db:"id"`
	CreatorID                string          `db:"creator_id"`
	OpponentID               *string         `db:"opponent_id"`
	Amount                   decimal.Decimal `db:"amount"`
	Status                   WagerStatus     `db:"status"`
	WinnerID                 *string         `db:"winner_id"`
	EscrowAddress            *string         `db:"escrow_address"`
	CreatorDepositSignature  *Signature      `db:"creator_deposit_signature"`
	OpponentDepositSignature *Signature      `db:"opponent_deposit_signature"`
	PayoutSignature          *Signature      `db:"payout_signature"`
	CreatorRefundSignature   *Signature      `db:"creator_refund_signature"`
	OpponentRefundSignature  *Signature      `db:"opponent_refund_signature"`
	CancelReason             *string         `db:"cancel_reason"`
	DisputeReason            *string         `db:"dispute_reason"`
	CreatedAt                time.Time       `db:"created_at"`
	ActivatedAt              *time.Time      `db:"activated_at"`
	CompletedAt              *time.Time      `db:"completed_at"`
	CancelledAt              *time.Time      `db:"cancelled_at"`
	UpdatedAt                time.Time       `db:"updated_at"`
}

// HasOpponent reports whether someone has joined the wager
func (w *Wager) HasOpponent() bool {
	return w.OpponentID != nil && *w.OpponentID != ""
}

// IsParticipant checks if a wallet is one of the two parties
func (w *Wager) IsParticipant(walletID string) bool {
	_, ok := w.PartyOf(walletID)
	return ok
}

// PartyOf returns which side a wallet is on
func (w *Wager) PartyOf(walletID string) (Party, bool) {
	if walletID == "" {
		return "", false
	}
	if w.CreatorID == walletID {
		return PartyCreator, true
	}
	if w.HasOpponent() && *w.OpponentID == walletID {
		return PartyOpponent, true
	}
	return "", false
}

// WalletOf returns the wallet for a party, empty if the opponent has not joined
func (w *Wager) WalletOf(p Party) string {
	if p == PartyCreator {
		return w.CreatorID
	}
	if w.HasOpponent() {
		return *w.OpponentID
	}
	return ""
}

// DepositOf returns the recorded deposit signature for a party
func (w *Wager) DepositOf(p Party) *Signature {
	if p == PartyCreator {
		return w.CreatorDepositSignature
	}
	return w.OpponentDepositSignature
}

// RefundOf returns the recorded refund signature for a party
func (w *Wager) RefundOf(p Party) *Signature {
	if p == PartyCreator {
		return w.CreatorRefundSignature
	}
	return w.OpponentRefundSignature
}

// HasBothDeposits reports whether both stakes have been confirmed
func (w *Wager) HasBothDeposits() bool {
	return w.HasOpponent() && w.CreatorDepositSignature != nil && w.OpponentDepositSignature != nil
}

// HasDepositSignature reports whether sig was recorded as either party's deposit
func (w *Wager) HasDepositSignature(sig Signature) (Party, bool) {
	if w.CreatorDepositSignature != nil && *w.CreatorDepositSignature == sig {
		return PartyCreator, true
	}
	if w.OpponentDepositSignature != nil && *w.OpponentDepositSignature == sig {
		return PartyOpponent, true
	}
	return "", false
}

// Deposits returns the typed deposit records present on the wager
func (w *Wager) Deposits() []DepositRef {
	refs := make([]DepositRef, 0, 2)
	for _, p := range []Party{PartyCreator, PartyOpponent} {
		if sig := w.DepositOf(p); sig != nil {
			refs = append(refs, DepositRef{Party: p, Signature: *sig})
		}
	}
	return refs
}

// Settlements returns the typed settlement records present on the wager
func (w *Wager) Settlements() []SettlementRef {
	refs := make([]SettlementRef, 0, 2)
	if w.PayoutSignature != nil && w.WinnerID != nil {
		party, _ := w.PartyOf(*w.WinnerID)
		refs = append(refs, SettlementRef{Kind: SettlementKindPayout, Party: party, Signature: *w.PayoutSignature})
	}
	for _, p := range []Party{PartyCreator, PartyOpponent} {
		if sig := w.RefundOf(p); sig != nil {
			refs = append(refs, SettlementRef{Kind: SettlementKindRefund, Party: p, Signature: *sig})
		}
	}
	return refs
}
