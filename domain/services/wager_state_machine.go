package services

import (
	"math"
	"time"

	"royalwager/domain/entities"
	"royalwager/domain/wagererr"
)

// CancelActor identifies who is asking for a cancellation
type CancelActor string

const (
	CancelActorParty    CancelActor = "party"
	CancelActorOperator CancelActor = "operator"
)

// Cancellation reasons recorded on the wager
const (
	CancelReasonPartyRequest     = "party_request"
	CancelReasonTimeoutNoMatches = "timeout_no_matches"
)

var allowedTransitions = map[entities.WagerStatus][]entities.WagerStatus{
	entities.WagerStatusPending:  {entities.WagerStatusActive, entities.WagerStatusCancelled},
	entities.WagerStatusActive:   {entities.WagerStatusCompleted, entities.WagerStatusCancelled, entities.WagerStatusDisputed},
	entities.WagerStatusDisputed: {entities.WagerStatusCompleted, entities.WagerStatusCancelled},
}

// WagerStateMachine contains the pure transition rules for a wager
type WagerStateMachine struct {
	timeout time.Duration
}

// NewWagerStateMachine creates a state machine using the stuck-match timeout
func NewWagerStateMachine(timeout time.Duration) *WagerStateMachine {
	return &WagerStateMachine{timeout: timeout}
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph
func (sm *WagerStateMachine) CanTransition(from, to entities.WagerStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (sm *WagerStateMachine) requireTransition(w *entities.Wager, to entities.WagerStatus) error {
	if !sm.CanTransition(w.Status, to) {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d cannot move from %s to %s", w.ID, w.Status, to)
	}
	return nil
}

// CanJoin validates a join attempt
func (sm *WagerStateMachine) CanJoin(w *entities.Wager, opponentID string) error {
	if w.CreatorID == opponentID {
		return wagererr.New(wagererr.CodeSelfJoin, "cannot join your own wager")
	}
	if w.Status != entities.WagerStatusPending {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only PENDING wagers can be joined", w.ID, w.Status)
	}
	if w.HasOpponent() {
		return wagererr.New(wagererr.CodeAlreadyJoined, "wager %d already has an opponent", w.ID)
	}
	return nil
}

// CanRecordDeposit validates a deposit for a party, returning true when it is a replay of the recorded one
func (sm *WagerStateMachine) CanRecordDeposit(w *entities.Wager, party entities.Party, sig entities.Signature) (bool, error) {
	if existing := w.DepositOf(party); existing != nil {
		if *existing == sig {
			return true, nil
		}
		return false, wagererr.New(wagererr.CodeDepositAlreadyRecorded, "wager %d already has a %s deposit", w.ID, party)
	}
	if w.Status != entities.WagerStatusPending {
		return false, wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, deposits are only accepted while PENDING", w.ID, w.Status)
	}
	if party == entities.PartyOpponent && !w.HasOpponent() {
		return false, wagererr.New(wagererr.CodeInvalidState, "wager %d has no opponent yet", w.ID)
	}
	return false, nil
}

// CanActivate validates PENDING -> ACTIVE
func (sm *WagerStateMachine) CanActivate(w *entities.Wager) error {
	if err := sm.requireTransition(w, entities.WagerStatusActive); err != nil {
		return err
	}
	if !w.HasBothDeposits() {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is waiting for both deposits", w.ID)
	}
	return nil
}

// CanComplete validates ACTIVE -> COMPLETED with the given winner
func (sm *WagerStateMachine) CanComplete(w *entities.Wager, winnerID string) error {
	if !w.IsParticipant(winnerID) {
		return wagererr.New(wagererr.CodeInvalidWinner, "winner %s is not a party to wager %d", winnerID, w.ID)
	}
	if w.WinnerID != nil && *w.WinnerID != winnerID {
		return wagererr.New(wagererr.CodeWinnerConflict, "wager %d already has winner %s", w.ID, *w.WinnerID)
	}
	if w.Status != entities.WagerStatusActive {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only ACTIVE wagers can complete", w.ID, w.Status)
	}
	return nil
}

// CanCancel validates a cancellation request made at now.
// An ACTIVE wager cancelled by a party also requires the caller to re-verify that no match was played.
func (sm *WagerStateMachine) CanCancel(w *entities.Wager, actor CancelActor, requesterID string, now time.Time) error {
	if err := sm.requireTransition(w, entities.WagerStatusCancelled); err != nil {
		return err
	}
	if actor == CancelActorOperator {
		return nil
	}

	if !w.IsParticipant(requesterID) {
		return wagererr.New(wagererr.CodeNotParty, "only a party to wager %d can cancel it", w.ID)
	}

	switch w.Status {
	case entities.WagerStatusPending:
		return nil
	case entities.WagerStatusActive:
		if w.ActivatedAt == nil {
			return wagererr.New(wagererr.CodeInvalidState, "wager %d has no activation time", w.ID)
		}
		if now.Sub(*w.ActivatedAt) < sm.timeout {
			return wagererr.New(wagererr.CodeNotYetEligible, "wager %d can be cancelled in %d minutes", w.ID, sm.MinutesUntilCancellable(w, now))
		}
		return nil
	default:
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s and cannot be cancelled by a party", w.ID, w.Status)
	}
}

// CanDispute validates the operator-only ACTIVE -> DISPUTED move
func (sm *WagerStateMachine) CanDispute(w *entities.Wager) error {
	if w.Status != entities.WagerStatusActive {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only ACTIVE wagers can be disputed", w.ID, w.Status)
	}
	return nil
}

// CanResolveDispute validates the operator-only DISPUTED -> COMPLETED move
func (sm *WagerStateMachine) CanResolveDispute(w *entities.Wager, winnerID string) error {
	if !w.IsParticipant(winnerID) {
		return wagererr.New(wagererr.CodeInvalidWinner, "winner %s is not a party to wager %d", winnerID, w.ID)
	}
	if w.Status != entities.WagerStatusDisputed {
		return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s, only DISPUTED wagers can be resolved", w.ID, w.Status)
	}
	return nil
}

// MinutesUntilCancellable returns how long a party must still wait, zero when eligible
func (sm *WagerStateMachine) MinutesUntilCancellable(w *entities.Wager, now time.Time) int {
	if w.ActivatedAt == nil {
		return 0
	}
	remaining := sm.timeout - now.Sub(*w.ActivatedAt)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
