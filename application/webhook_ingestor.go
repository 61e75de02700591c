package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
	"royalwager/domain/services"
	"royalwager/domain/wagererr"
	"royalwager/events"
	"royalwager/infrastructure/observability"
)

// lamportsPerSOLExp shifts a SOL amount into lamports
const lamportsPerSOLExp = 9

// IngestOutcome is what happened to one delivered transaction
type IngestOutcome string

const (
	IngestRecorded  IngestOutcome = "recorded"
	IngestActivated IngestOutcome = "activated"
	IngestDuplicate IngestOutcome = "duplicate"
	IngestUnmatched IngestOutcome = "unmatched"
	IngestRejected  IngestOutcome = "rejected"
)

// AccountChange is one account's native balance change within a transaction
type AccountChange struct {
	Account             string `json:"account"`
	NativeBalanceChange int64  `json:"nativeBalanceChange"`
}

// DepositNotification is one confirmed transaction delivered by the webhook
type DepositNotification struct {
	Signature entities.Signature
	Slot      int64
	Timestamp time.Time
	Accounts  []AccountChange
}

// IngestResult reports the handling of one notification. RefundRequired marks funds that
// reached an escrow no longer accepting deposits.
type IngestResult struct {
	Signature      entities.Signature   `json:"signature"`
	Outcome        IngestOutcome        `json:"outcome"`
	WagerID        *int64               `json:"wagerId,omitempty"`
	Party          entities.Party       `json:"party,omitempty"`
	Status         entities.WagerStatus `json:"status,omitempty"`
	Code           wagererr.Code        `json:"code,omitempty"`
	Message        string               `json:"message,omitempty"`
	RefundRequired bool                 `json:"refundRequired,omitempty"`
}

type heliusTransactionRef struct {
	Signature string `json:"signature"`
	Slot      int64  `json:"slot"`
	Timestamp int64  `json:"timestamp"`
}

type heliusTransaction struct {
	Signature   string                `json:"signature"`
	Slot        int64                 `json:"slot"`
	Timestamp   int64                 `json:"timestamp"`
	Transaction *heliusTransactionRef `json:"transaction"`
	AccountData []AccountChange       `json:"accountData"`
	Type        string                `json:"type"`
}

// ParseDepositWebhook decodes a Helius enhanced-transaction delivery, either one object or an array
func ParseDepositWebhook(body []byte) ([]DepositNotification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, wagererr.New(wagererr.CodeInvalidPayload, "webhook body is empty")
	}

	var txs []heliusTransaction
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &txs); err != nil {
			return nil, wagererr.Wrap(wagererr.CodeInvalidPayload, err, "webhook body is not valid JSON")
		}
	} else {
		var tx heliusTransaction
		if err := json.Unmarshal(trimmed, &tx); err != nil {
			return nil, wagererr.Wrap(wagererr.CodeInvalidPayload, err, "webhook body is not valid JSON")
		}
		txs = []heliusTransaction{tx}
	}

	notifications := make([]DepositNotification, 0, len(txs))
	for _, tx := range txs {
		n := DepositNotification{
			Signature: entities.Signature(tx.Signature),
			Slot:      tx.Slot,
			Accounts:  tx.AccountData,
		}
		ts := tx.Timestamp
		if tx.Transaction != nil {
			if tx.Transaction.Signature != "" {
				n.Signature = entities.Signature(tx.Transaction.Signature)
			}
			if tx.Transaction.Slot != 0 {
				n.Slot = tx.Transaction.Slot
			}
			if tx.Transaction.Timestamp != 0 {
				ts = tx.Transaction.Timestamp
			}
		}
		if ts > 0 {
			n.Timestamp = time.Unix(ts, 0).UTC()
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// WebhookIngestor turns confirmed deposit transactions into deposit and activation transitions.
// Redelivery of the same transaction is always safe.
type WebhookIngestor struct {
	uowFactory   interfaces.UnitOfWorkFactory
	stateMachine *services.WagerStateMachine
	metrics      *observability.MetricsProvider
	timeout      time.Duration
}

// NewWebhookIngestor creates a new webhook ingestor
func NewWebhookIngestor(uowFactory interfaces.UnitOfWorkFactory, metrics *observability.MetricsProvider, repositoryTimeout time.Duration) *WebhookIngestor {
	return &WebhookIngestor{
		uowFactory:   uowFactory,
		stateMachine: services.NewWagerStateMachine(0),
		metrics:      metrics,
		timeout:      repositoryTimeout,
	}
}

// IngestBatch handles each notification independently. A system error stops the batch so the
// sender redelivers it; everything already applied is idempotent.
func (i *WebhookIngestor) IngestBatch(ctx context.Context, notifications []DepositNotification) ([]IngestResult, error) {
	results := make([]IngestResult, 0, len(notifications))
	for _, n := range notifications {
		result, err := i.Ingest(ctx, n)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// Ingest handles one confirmed transaction
func (i *WebhookIngestor) Ingest(ctx context.Context, n DepositNotification) (*IngestResult, error) {
	result := &IngestResult{Signature: n.Signature}
	if err := services.ValidateSignature(n.Signature); err != nil {
		return i.finish(ctx, reject(result, err), n), nil
	}

	err := runInUnitOfWork(ctx, i.uowFactory, i.timeout, func(ctx context.Context, uow interfaces.UnitOfWork) error {
		return i.apply(ctx, uow, n, result)
	})
	if err != nil {
		if isPermanent(err) {
			return i.finish(ctx, reject(result, err), n), nil
		}
		log.WithFields(log.Fields{
			"signature": n.Signature,
			"error":     err,
		}).Error("Failed to ingest deposit webhook")
		i.metrics.RecordWebhookDelivery(ctx, observability.ResultError)
		return nil, err
	}
	return i.finish(ctx, result, n), nil
}

func (i *WebhookIngestor) apply(ctx context.Context, uow interfaces.UnitOfWork, n DepositNotification, result *IngestResult) error {
	repo := uow.WagerRepository()

	existing, err := repo.FindByDepositSignature(ctx, n.Signature)
	if err != nil {
		return err
	}
	if existing != nil {
		party, _ := existing.HasDepositSignature(n.Signature)
		result.Outcome = IngestDuplicate
		result.WagerID = &existing.ID
		result.Party = party
		result.Status = existing.Status
		if i.stateMachine.CanActivate(existing) == nil {
			activated, err := i.activate(ctx, uow, existing.ID)
			if err != nil {
				return err
			}
			result.Status = activated.Status
		}
		return nil
	}

	w, received, err := findEscrowWager(ctx, repo.FindPendingByEscrowAddress, n.Accounts)
	if err != nil {
		return err
	}
	if w == nil {
		return i.checkStrandedFunds(ctx, repo, n, result)
	}
	result.WagerID = &w.ID

	party, ok := depositorParty(w, n.Accounts)
	if !ok {
		return wagererr.New(wagererr.CodeUnknownDepositor, "no party of wager %d paid into escrow in this transaction", w.ID)
	}
	result.Party = party

	required := w.Amount.Shift(lamportsPerSOLExp)
	if decimal.NewFromInt(received).LessThan(required) {
		return wagererr.New(wagererr.CodeInvalidAmount, "escrow received %d lamports, wager %d requires %s", received, w.ID, required.String())
	}

	if _, err := i.stateMachine.CanRecordDeposit(w, party, n.Signature); err != nil {
		return err
	}

	updated, recorded, err := repo.RecordDeposit(ctx, w.ID, party, n.Signature)
	if err != nil {
		if wagererr.HasCode(err, wagererr.CodeInvalidState) {
			// Lost a race with a cancel between lookup and write
			if current, getErr := repo.GetByID(ctx, w.ID); getErr == nil && current != nil && current.Status != entities.WagerStatusPending {
				result.Status = current.Status
				result.RefundRequired = true
			}
		}
		return err
	}
	result.Outcome = IngestRecorded
	result.Status = updated.Status
	if !recorded {
		result.Outcome = IngestDuplicate
	} else if err := uow.EventBus().Publish(events.DepositRecordedEvent{WagerID: w.ID, Party: party, Signature: n.Signature}); err != nil {
		return err
	}

	if i.stateMachine.CanActivate(updated) != nil {
		return nil
	}
	activated, err := i.activate(ctx, uow, w.ID)
	if err != nil {
		return err
	}
	if activated.Status == entities.WagerStatusActive && result.Outcome == IngestRecorded {
		result.Outcome = IngestActivated
	}
	result.Status = activated.Status
	return nil
}

// checkStrandedFunds handles a transfer into the escrow of a wager that is no longer PENDING.
// Nothing is recorded; the result is flagged so an operator refunds it by hand.
func (i *WebhookIngestor) checkStrandedFunds(ctx context.Context, repo interfaces.WagerRepository, n DepositNotification, result *IngestResult) error {
	stale, _, err := findEscrowWager(ctx, repo.FindLatestByEscrowAddress, n.Accounts)
	if err != nil {
		return err
	}
	if stale == nil {
		result.Outcome = IngestUnmatched
		return nil
	}

	result.WagerID = &stale.ID
	result.Status = stale.Status
	result.RefundRequired = true
	if party, ok := depositorParty(stale, n.Accounts); ok {
		result.Party = party
	}
	return wagererr.New(wagererr.CodeInvalidState, "wager %d is %s and no longer accepts deposits", stale.ID, stale.Status)
}

// activate moves a fully funded wager to ACTIVE. A wager still missing a deposit stays as it is.
func (i *WebhookIngestor) activate(ctx context.Context, uow interfaces.UnitOfWork, id int64) (*entities.Wager, error) {
	w, activated, err := uow.WagerRepository().Activate(ctx, id)
	if err != nil {
		if wagererr.HasCode(err, wagererr.CodeInvalidState) {
			log.WithFields(log.Fields{
				"wagerId": id,
				"error":   err,
			}).Debug("Wager not ready for activation")
			current, getErr := loadWager(ctx, uow, id)
			if getErr != nil {
				return nil, getErr
			}
			return current, nil
		}
		return nil, err
	}
	if activated {
		if err := uow.EventBus().Publish(events.NewWagerStateChangeEvent(w, entities.WagerStatusPending, "deposits_confirmed")); err != nil {
			return nil, err
		}
		log.WithField("wagerId", id).Info("Wager activated after both deposits confirmed")
	}
	return w, nil
}

func (i *WebhookIngestor) finish(ctx context.Context, result *IngestResult, n DepositNotification) *IngestResult {
	fields := log.Fields{
		"signature": n.Signature,
		"slot":      n.Slot,
		"outcome":   result.Outcome,
	}
	if result.WagerID != nil {
		fields["wagerId"] = *result.WagerID
	}
	if result.RefundRequired {
		fields["code"] = result.Code
		fields["status"] = result.Status
		fields["party"] = result.Party
		log.WithFields(fields).Error("Deposit reached the escrow of a wager that no longer accepts deposits, manual refund required")
	} else if result.Code != "" {
		fields["code"] = result.Code
		log.WithFields(fields).Warn("Rejected deposit webhook transaction")
	} else if result.Outcome == IngestUnmatched {
		log.WithFields(fields).Info("Webhook transaction matched no pending wager")
	} else {
		log.WithFields(fields).Info("Processed deposit webhook transaction")
	}
	i.metrics.RecordWebhookDelivery(ctx, string(result.Outcome))
	return result
}

type escrowLookup func(ctx context.Context, address string) (*entities.Wager, error)

// findEscrowWager returns the wager whose escrow account gained funds, with the amount received
func findEscrowWager(ctx context.Context, lookup escrowLookup, accounts []AccountChange) (*entities.Wager, int64, error) {
	for _, a := range accounts {
		if a.NativeBalanceChange <= 0 || a.Account == "" {
			continue
		}
		w, err := lookup(ctx, a.Account)
		if err != nil {
			return nil, 0, err
		}
		if w != nil {
			return w, a.NativeBalanceChange, nil
		}
	}
	return nil, 0, nil
}

// depositorParty finds the wager party whose balance went down in the transaction
func depositorParty(w *entities.Wager, accounts []AccountChange) (entities.Party, bool) {
	for _, a := range accounts {
		if a.NativeBalanceChange >= 0 {
			continue
		}
		if party, ok := w.PartyOf(a.Account); ok {
			return party, true
		}
	}
	return "", false
}

func reject(result *IngestResult, err error) *IngestResult {
	result.Outcome = IngestRejected
	result.Code = wagererr.CodeOf(err)
	result.Message = err.Error()
	var typed *wagererr.Error
	if errors.As(err, &typed) {
		result.Message = typed.Message
	}
	return result
}

// isPermanent reports whether redelivering the same transaction can never succeed
func isPermanent(err error) bool {
	switch wagererr.KindOf(err) {
	case wagererr.KindValidation, wagererr.KindStateConflict, wagererr.KindNotFound:
		return true
	}
	return false
}
