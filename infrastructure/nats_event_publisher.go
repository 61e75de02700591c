package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"royalwager/events"
	"royalwager/infrastructure/observability"
)

const publishTimeout = 5 * time.Second

// EventEnvelope wraps a serialized event on the wire
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, msgID string, data []byte) error
}

// NATSEventPublisher emits events to the in-process bus and to NATS JetStream
type NATSEventPublisher struct {
	natsClient    MessagePublisher
	subjectMapper *EventSubjectMapper
	localBus      *events.Bus
	metrics       *observability.MetricsProvider
}

// NewNATSEventPublisher creates a new NATS event publisher; localBus may be nil
func NewNATSEventPublisher(natsClient MessagePublisher, subjectMapper *EventSubjectMapper, localBus *events.Bus, metrics *observability.MetricsProvider) *NATSEventPublisher {
	return &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		localBus:      localBus,
		metrics:       metrics,
	}
}

// Publish delivers the event locally first, then to NATS
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if p.localBus != nil {
		p.localBus.Emit(context.Background(), event)
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	err = p.natsClient.Publish(ctx, subject, envelope.EventID, envelopeData)
	p.metrics.RecordNATSMessagePublished(string(event.Type()), err)
	if err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// EnsureWagerEventStream ensures the wager_events stream exists with the correct subjects
func (p *NATSEventPublisher) EnsureWagerEventStream(client *NATSClient) error {
	return client.EnsureStream(WagerEventStream, p.subjectMapper.GetAllSubjects())
}

// eventNamespace scopes the name-based ids derived for keyed events
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:royalwager:events"))

// EventID returns a stable id for keyed events so JetStream drops redeliveries
// within its duplicate window. Other events get a random id.
func EventID(event events.Event) string {
	if keyed, ok := event.(events.Keyed); ok {
		return uuid.NewSHA1(eventNamespace, []byte(string(event.Type())+":"+keyed.IdempotencyKey())).String()
	}
	return uuid.New().String()
}

// NewEventEnvelope serializes an event into an envelope carrying its EventID
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       EventID(event),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "royalwager",
		Payload:       payload,
	}, nil
}
