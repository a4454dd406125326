package discovery

import (
	"time"

	"vendorflow/internal/domain/shared/events"
)

const EventTypeCompleted = "discovery.completed"

// CompletedEvent is raised when a discovery run finishes with at least one candidate.
type CompletedEvent struct {
	events.BaseEvent
	ResultID       string
	Source         Source
	Status         Status
	CandidateCount int
}

func NewCompletedEvent(r *DiscoveryResult, at time.Time) CompletedEvent {
	return CompletedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: r.TicketID(),
			EventType:   EventTypeCompleted,
			OccurredAt:  at,
			Version:     1,
		},
		ResultID:       r.ID(),
		Source:         r.Source(),
		Status:         r.Status(),
		CandidateCount: r.Len(),
	}
}
