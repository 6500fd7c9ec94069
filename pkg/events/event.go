package events

import "time"

// Event is the contract for all pipeline events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "on_retriever_start").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// CorrelationID ties the event to one pipeline invocation.
	CorrelationID() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard Event implementation used by the pipeline.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	RunID      string
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) CorrelationID() string {
	return e.RunID
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
