package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchRecord is one normalized battle from a player's recent history.
// OpponentTags lists every player on the opposing side, one entry for 1v1 modes.
type MatchRecord struct {
	OccurredAt    time.Time
	SelfTag       string
	OpponentTags  []string
	SelfScore     int
	OpponentScore int
}

// VerificationOutcome describes what a verification call concluded
type VerificationOutcome string

const (
	// OutcomeWinnerDetermined means one side reached two wins
	OutcomeWinnerDetermined VerificationOutcome = "winner_determined"
	// OutcomePending means no winner yet, keep checking
	OutcomePending VerificationOutcome = "pending"
	// OutcomeTimedOut means the timeout passed with no qualifying match; cancellation is available
	OutcomeTimedOut VerificationOutcome = "timed_out"
	// OutcomeNeedsReview means the timeout passed after some play; only an operator can settle it
	OutcomeNeedsReview VerificationOutcome = "needs_review"
	// OutcomeAlreadyCompleted means the wager already has a recorded winner
	OutcomeAlreadyCompleted VerificationOutcome = "already_completed"
)

// VerificationResult is the best-of-3 evaluation for a wager at one instant
type VerificationResult struct {
	WagerID           int64               `json:"wagerId"`
	Outcome           VerificationOutcome `json:"outcome"`
	CreatorWins       int                 `json:"creatorWins"`
	OpponentWins      int                 `json:"opponentWins"`
	MatchesConsidered int                 `json:"matchesConsidered"`
	Anomalies         int                 `json:"anomalies"`
	WinnerTag         *string             `json:"winnerTag"`
	WinnerID          *string             `json:"winnerId"`
	IsTimedOut        bool                `json:"isTimedOut"`
	Message           string              `json:"message"`
}

// HasWinner reports whether a winner was determined
func (r *VerificationResult) HasWinner() bool {
	return r.WinnerID != nil
}

// TransferInstruction is an amount owed out of escrow to one recipient
type TransferInstruction struct {
	WagerID           int64           `json:"wagerId"`
	Kind              SettlementKind  `json:"kind"`
	Party             Party           `json:"party"`
	Recipient         string          `json:"recipient"`
	Amount            decimal.Decimal `json:"amount"`
	Fee               decimal.Decimal `json:"fee"`
	RecordedSignature *Signature      `json:"recordedSignature"`
}

// IsSettled reports whether a signature has been recorded for the transfer
func (t TransferInstruction) IsSettled() bool {
	return t.RecordedSignature != nil
}
