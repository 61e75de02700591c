package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerStateChange   EventType = "wager_state_change"
	EventTypeDepositRecorded    EventType = "deposit_recorded"
	EventTypeSettlementRecorded EventType = "settlement_recorded"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WagerScoped is implemented by events that belong to a single wager
type WagerScoped interface {
	Event
	WagerKey() int64
}

// Keyed is implemented by events that occur at most once. Redeliveries of
// the same occurrence share a key.
type Keyed interface {
	Event
	IdempotencyKey() string
}

// WagerStateChangeEvent represents a wager status transition
type WagerStateChangeEvent struct {
	WagerID    int64                `json:"wagerId"`
	OldStatus  entities.WagerStatus `json:"oldStatus"`
	NewStatus  entities.WagerStatus `json:"newStatus"`
	CreatorID  string               `json:"creatorId"`
	OpponentID *string              `json:"opponentId,omitempty"`
	WinnerID   *string              `json:"winnerId,omitempty"`
	Amount     decimal.Decimal      `json:"amount"`
	Reason     string               `json:"reason,omitempty"`
}

func (e WagerStateChangeEvent) Type() EventType {
	return EventTypeWagerStateChange
}

func (e WagerStateChangeEvent) WagerKey() int64 {
	return e.WagerID
}

// IdempotencyKey is unique per transition because every transition is a single compare-and-swap
func (e WagerStateChangeEvent) IdempotencyKey() string {
	return fmt.Sprintf("%d:%s:%s", e.WagerID, e.OldStatus, e.NewStatus)
}

// NewWagerStateChangeEvent builds a transition event from the wager's post-transition row
func NewWagerStateChangeEvent(w *entities.Wager, old entities.WagerStatus, reason string) WagerStateChangeEvent {
	return WagerStateChangeEvent{
		WagerID:    w.ID,
		OldStatus:  old,
		NewStatus:  w.Status,
		CreatorID:  w.CreatorID,
		OpponentID: w.OpponentID,
		WinnerID:   w.WinnerID,
		Amount:     w.Amount,
		Reason:     reason,
	}
}

// DepositRecordedEvent represents a confirmed stake deposit
type DepositRecordedEvent struct {
	WagerID   int64              `json:"wagerId"`
	Party     entities.Party     `json:"party"`
	Signature entities.Signature `json:"signature"`
}

func (e DepositRecordedEvent) Type() EventType {
	return EventTypeDepositRecorded
}

func (e DepositRecordedEvent) WagerKey() int64 {
	return e.WagerID
}

func (e DepositRecordedEvent) IdempotencyKey() string {
	return fmt.Sprintf("%d:deposit:%s:%s", e.WagerID, e.Party, e.Signature)
}

// SettlementRecordedEvent represents a payout or refund signature being recorded
type SettlementRecordedEvent struct {
	WagerID   int64                   `json:"wagerId"`
	Kind      entities.SettlementKind `json:"kind"`
	Party     entities.Party          `json:"party"`
	Recipient string                  `json:"recipient"`
	Signature entities.Signature      `json:"signature"`
	Amount    decimal.Decimal         `json:"amount"`
}

func (e SettlementRecordedEvent) Type() EventType {
	return EventTypeSettlementRecorded
}

func (e SettlementRecordedEvent) WagerKey() int64 {
	return e.WagerID
}

func (e SettlementRecordedEvent) IdempotencyKey() string {
	return fmt.Sprintf("%d:%s:%s:%s", e.WagerID, e.Kind, e.Party, e.Signature)
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages in-process event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []EventType{EventTypeWagerStateChange, EventTypeDepositRecorded, EventTypeSettlementRecorded} {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish implements the publisher contract so the bus can be used without a broker
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// TransactionalBus holds events raised inside a unit of work until it commits.
// Flushes to the underlying publisher.
type TransactionalBus struct {
	real interface {
		Publish(Event) error
	}
	pending []Event
}

// NewTransactionalBus wraps a publisher with commit-coupled buffering
func NewTransactionalBus(real interface{ Publish(Event) error }) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) error {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
	return nil
}

// Flush is called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	for _, ev := range b.pending {
		if err := b.real.Publish(ev); err != nil {
			// The transaction already committed, so a failed publish is logged and skipped
			log.WithFields(log.Fields{
				"eventType": ev.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	log.WithFields(log.Fields{
		"discardedEventCount": len(b.pending),
	}).Debug("Discarding pending events from transactional bus")
	b.pending = nil
}

// Pending returns the number of buffered events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
