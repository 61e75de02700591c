package infrastructure

import (
	"fmt"
	"strings"

	"royalwager/events"
)

const subjectRoot = "wagers"

// EventSubjectMapper handles mapping between domain events and NATS subjects.
// Subjects are wagers.<wagerId>.<eventType> so consumers can follow one wager.
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if scoped, ok := event.(events.WagerScoped); ok {
		return fmt.Sprintf("%s.%d.%s", subjectRoot, scoped.WagerKey(), event.Type())
	}
	return fmt.Sprintf("%s.unscoped.%s", subjectRoot, event.Type())
}

// MapSubjectToEventType recovers the event type from a subject
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	idx := strings.LastIndex(subject, ".")
	if idx < 0 {
		return events.EventType(subject)
	}
	return events.EventType(subject[idx+1:])
}

// GetAllSubjects returns the subject filters this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{subjectRoot + ".>"}
}
