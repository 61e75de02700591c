package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/services"
	"royalwager/events"
)

const defaultPendingSettlementLimit = 100

// SettlementCoordinator computes the transfers owed out of escrow and records their signatures.
// It never signs or sends a transfer.
type SettlementCoordinator struct {
	uowFactory interfaces.UnitOfWorkFactory
	calculator *services.SettlementService
	timeout    time.Duration
}

// NewSettlementCoordinator creates a new settlement coordinator
func NewSettlementCoordinator(uowFactory interfaces.UnitOfWorkFactory, calculator *services.SettlementService, repositoryTimeout time.Duration) *SettlementCoordinator {
	return &SettlementCoordinator{
		uowFactory: uowFactory,
		calculator: calculator,
		timeout:    repositoryTimeout,
	}
}

// Instructions returns the transfers owed for a wager, with any recorded signatures
func (c *SettlementCoordinator) Instructions(ctx context.Context, id int64) ([]entities.TransferInstruction, error) {
	var w *entities.Wager
	err := runInUnitOfWork(ctx, c.uowFactory, c.timeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		w, err = loadWager(ctx, uow, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	instructions := c.calculator.Instructions(w)
	if instructions == nil {
		instructions = []entities.TransferInstruction{}
	}
	return instructions, nil
}

// RecordPayout stores the payout signature of a COMPLETED wager once
func (c *SettlementCoordinator) RecordPayout(ctx context.Context, id int64, sig entities.Signature) (*entities.Wager, error) {
	if err := services.ValidateSignature(sig); err != nil {
		return nil, err
	}

	var paid *entities.Wager
	err := runInUnitOfWork(ctx, c.uowFactory, c.timeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		w, recorded, err := uow.WagerRepository().RecordPayout(ctx, id, sig)
		if err != nil {
			return err
		}
		paid = w
		if !recorded || w.WinnerID == nil {
			return nil
		}
		party, _ := w.PartyOf(*w.WinnerID)
		payout, _ := c.calculator.CalculatePayout(w.Amount)
		return uow.EventBus().Publish(events.SettlementRecordedEvent{
			WagerID:   w.ID,
			Kind:      entities.SettlementKindPayout,
			Party:     party,
			Recipient: *w.WinnerID,
			Signature: sig,
			Amount:    payout,
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":   id,
		"signature": sig,
	}).Info("Payout recorded")
	return paid, nil
}

// RecordRefund stores a party's refund signature of a CANCELLED wager once
func (c *SettlementCoordinator) RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, error) {
	if _, err := entities.ParseParty(string(party)); err != nil {
		return nil, err
	}
	if err := services.ValidateSignature(sig); err != nil {
		return nil, err
	}

	var refunded *entities.Wager
	err := runInUnitOfWork(ctx, c.uowFactory, c.timeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		w, recorded, err := uow.WagerRepository().RecordRefund(ctx, id, party, sig)
		if err != nil {
			return err
		}
		refunded = w
		if !recorded {
			return nil
		}
		return uow.EventBus().Publish(events.SettlementRecordedEvent{
			WagerID:   w.ID,
			Kind:      entities.SettlementKindRefund,
			Party:     party,
			Recipient: w.WalletOf(party),
			Signature: sig,
			Amount:    c.calculator.CalculateRefund(w.Amount),
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wagerId":   id,
		"party":     party,
		"signature": sig,
	}).Info("Refund recorded")
	return refunded, nil
}

// PendingSettlements lists transfers owed by finished wagers that have no recorded signature yet
func (c *SettlementCoordinator) PendingSettlements(ctx context.Context, limit int) ([]entities.TransferInstruction, error) {
	if limit <= 0 {
		limit = defaultPendingSettlementLimit
	}

	var wagers []*entities.Wager
	err := runInUnitOfWork(ctx, c.uowFactory, c.timeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		var err error
		wagers, err = uow.WagerRepository().ListUnsettled(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	pending := make([]entities.TransferInstruction, 0, len(wagers))
	for _, w := range wagers {
		pending = append(pending, c.calculator.Unsettled(w)...)
	}
	return pending, nil
}
