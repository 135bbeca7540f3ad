package infrastructure

import (
	"fmt"

	"stakearena/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeMatchCreated:
		return "matches.created"
	case events.EventTypeMatchStarted:
		return "matches.started"
	case events.EventTypeMatchSettled:
		return "matches.settled"
	case events.EventTypeDisputeOpened:
		return "disputes.opened"
	case events.EventTypeEvidenceSubmitted:
		return "disputes.evidence_submitted"
	case events.EventTypeBalanceChange:
		return "users.balance_changed"
	case events.EventTypeUserCreated:
		return "users.created"
	case events.EventTypeTeamCreated:
		return "teams.created"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"matches.created",
		"matches.started",
		"matches.settled",
		"disputes.opened",
		"disputes.evidence_submitted",
		"users.balance_changed",
		"users.created",
		"teams.created",
	}
}
