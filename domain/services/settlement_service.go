package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"royalwager/domain/entities"
)

// lamportPlaces is the smallest unit SOL amounts are expressed in
const lamportPlaces = 9

// DefaultFeeRate is the platform fee taken from a winning pot
var DefaultFeeRate = decimal.RequireFromString("0.05")

// SettlementService computes amounts owed out of escrow. It never moves funds.
type SettlementService struct {
	feeRate decimal.Decimal
}

// NewSettlementService creates a settlement calculator, rejecting fee rates outside [0, 1)
func NewSettlementService(feeRate decimal.Decimal) (*SettlementService, error) {
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1), got %s", feeRate)
	}
	return &SettlementService{feeRate: feeRate}, nil
}

// FeeRate returns the configured fee rate
func (s *SettlementService) FeeRate() decimal.Decimal {
	return s.feeRate
}

// CalculatePayout returns the winner's payout 2a(1-f) and the fee kept from the pot
func (s *SettlementService) CalculatePayout(amount decimal.Decimal) (payout decimal.Decimal, fee decimal.Decimal) {
	pot := amount.Mul(decimal.NewFromInt(2))
	payout = pot.Mul(decimal.NewFromInt(1).Sub(s.feeRate)).Truncate(lamportPlaces)
	fee = pot.Sub(payout)
	return payout, fee
}

// CalculateRefund returns what each party gets back from a cancelled wager
func (s *SettlementService) CalculateRefund(amount decimal.Decimal) decimal.Decimal {
	return amount
}

// Instructions lists the transfers owed for a wager in its current state
func (s *SettlementService) Instructions(w *entities.Wager) []entities.TransferInstruction {
	switch w.Status {
	case entities.WagerStatusCompleted:
		if w.WinnerID == nil {
			return nil
		}
		party, ok := w.PartyOf(*w.WinnerID)
		if !ok {
			return nil
		}
		payout, fee := s.CalculatePayout(w.Amount)
		return []entities.TransferInstruction{{
			WagerID:           w.ID,
			Kind:              entities.SettlementKindPayout,
			Party:             party,
			Recipient:         *w.WinnerID,
			Amount:            payout,
			Fee:               fee,
			RecordedSignature: w.PayoutSignature,
		}}

	case entities.WagerStatusCancelled:
		instructions := make([]entities.TransferInstruction, 0, 2)
		for _, party := range []entities.Party{entities.PartyCreator, entities.PartyOpponent} {
			if w.DepositOf(party) == nil {
				continue
			}
			instructions = append(instructions, entities.TransferInstruction{
				WagerID:           w.ID,
				Kind:              entities.SettlementKindRefund,
				Party:             party,
				Recipient:         w.WalletOf(party),
				Amount:            s.CalculateRefund(w.Amount),
				Fee:               decimal.Zero,
				RecordedSignature: w.RefundOf(party),
			})
		}
		return instructions
	}
	return nil
}

// Unsettled filters instructions that have no recorded signature
func (s *SettlementService) Unsettled(w *entities.Wager) []entities.TransferInstruction {
	var pending []entities.TransferInstruction
	for _, ins := range s.Instructions(w) {
		if !ins.IsSettled() {
			pending = append(pending, ins)
		}
	}
	return pending
}
