package infrastructure

import (
	"fmt"

	"bicho/domain/events"
)

// DomainEventStream is the JetStream stream holding every published domain event
const DomainEventStream = "bicho_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeWagerWon:
		return "bicho.wagers.won"
	case events.EventTypeWagerCancelled:
		return "bicho.wagers.cancelled"
	case events.EventTypeBalanceChange:
		return "bicho.accounts.balance_changed"
	case events.EventTypeSlotSettled:
		return "bicho.settlement.slot_settled"
	default:
		return fmt.Sprintf("bicho.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "bicho.wagers.won":
		return events.EventTypeWagerWon
	case "bicho.wagers.cancelled":
		return events.EventTypeWagerCancelled
	case "bicho.accounts.balance_changed":
		return events.EventTypeBalanceChange
	case "bicho.settlement.slot_settled":
		return events.EventTypeSlotSettled
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"bicho.wagers.won",
		"bicho.wagers.cancelled",
		"bicho.accounts.balance_changed",
		"bicho.settlement.slot_settled",
	}
}
