package server

import (
	"time"

	"github.com/shopspring/decimal"

	"royalwager/domain/entities"
)

type wagerResponse struct {
	ID            int64                    `json:"id"`
	CreatorID     string                   `json:"creatorId"`
	OpponentID    *string                  `json:"opponentId"`
	Amount        decimal.Decimal          `json:"amount"`
	Status        entities.WagerStatus     `json:"status"`
	WinnerID      *string                  `json:"winnerId"`
	EscrowAddress *string                  `json:"escrowAddress"`
	Deposits      []entities.DepositRef    `json:"deposits"`
	Settlements   []entities.SettlementRef `json:"settlements"`
	CancelReason  *string                  `json:"cancelReason,omitempty"`
	DisputeReason *string                  `json:"disputeReason,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	ActivatedAt   *time.Time               `json:"activatedAt"`
	CompletedAt   *time.Time               `json:"completedAt,omitempty"`
	CancelledAt   *time.Time               `json:"cancelledAt,omitempty"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

func toWagerResponse(w *entities.Wager) wagerResponse {
	return wagerResponse{
		ID:            w.ID,
		CreatorID:     w.CreatorID,
		OpponentID:    w.OpponentID,
		Amount:        w.Amount,
		Status:        w.Status,
		WinnerID:      w.WinnerID,
		EscrowAddress: w.EscrowAddress,
		Deposits:      w.Deposits(),
		Settlements:   w.Settlements(),
		CancelReason:  w.CancelReason,
		DisputeReason: w.DisputeReason,
		CreatedAt:     w.CreatedAt,
		ActivatedAt:   w.ActivatedAt,
		CompletedAt:   w.CompletedAt,
		CancelledAt:   w.CancelledAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func toWagerResponses(wagers []*entities.Wager) []wagerResponse {
	out := make([]wagerResponse, 0, len(wagers))
	for _, w := range wagers {
		out = append(out, toWagerResponse(w))
	}
	return out
}

type profileResponse struct {
	WalletID  string    `json:"walletId"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileResponse(p *entities.PlayerProfile) profileResponse {
	return profileResponse{
		WalletID:  p.WalletID,
		Tag:       p.Tag,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createWagerRequest struct {
	CreatorID     string          `json:"creatorId"`
	Amount        decimal.Decimal `json:"amount"`
	EscrowAddress *string         `json:"escrowAddress"`
}

type joinWagerRequest struct {
	OpponentID string `json:"opponentId"`
}

type cancelWagerRequest struct {
	RequesterID string `json:"requesterId"`
}

type upsertProfileRequest struct {
	Tag string `json:"tag"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type resolveDisputeRequest struct {
	WinnerID string `json:"winnerId"`
}

type payoutRequest struct {
	Signature entities.Signature `json:"signature"`
}

type refundRequest struct {
	Party     string             `json:"party"`
	Signature entities.Signature `json:"signature"`
}

type settlementResponse struct {
	WagerID      int64                          `json:"wagerId"`
	Instructions []entities.TransferInstruction `json:"instructions"`
}
