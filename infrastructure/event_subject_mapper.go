package infrastructure

import (
	"fmt"

	"linkkeeper/events"
)

// ArchiveEventStream is the JetStream stream every archive event is stored in
const ArchiveEventStream = "archive_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeArchiveDispatched:
		return "archive.dispatched"
	case events.EventTypeArchiveFailed:
		return "archive.failed"
	case events.EventTypeGuildSettingsChanged:
		return "settings.changed"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"archive.dispatched",
		"archive.failed",
		"settings.changed",
	}
}

// ForwardedEventTypes lists the bus events that are mirrored to NATS
func (m *EventSubjectMapper) ForwardedEventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeArchiveDispatched,
		events.EventTypeArchiveFailed,
		events.EventTypeGuildSettingsChanged,
	}
}
