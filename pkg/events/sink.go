package events

import "time"

// Sink receives pipeline observability events. Implementations must not
// block the pipeline: slow or failing delivery is the sink's problem.
type Sink interface {
	Emit(name string, payload map[string]interface{}, correlationID string)
}

// NopSink discards everything. Useful default for tests.
type NopSink struct{}

func (NopSink) Emit(string, map[string]interface{}, string) {}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Emit(name string, payload map[string]interface{}, correlationID string) {
	for _, sink := range m {
		sink.Emit(name, payload, correlationID)
	}
}

// Emitter binds a sink to one invocation's correlation id so pipeline
// components don't have to thread the run id through every call.
type Emitter struct {
	sink  Sink
	runID string
}

func NewEmitter(sink Sink, runID string) *Emitter {
	if sink == nil {
		sink = NopSink{}
	}
	return &Emitter{sink: sink, runID: runID}
}

func (e *Emitter) Emit(name string, payload map[string]interface{}) {
	e.sink.Emit(name, payload, e.runID)
}

func (e *Emitter) RunID() string {
	return e.runID
}

// NewBase builds a BaseEvent stamped with the current time.
func NewBase(name string, payload map[string]interface{}, correlationID string) BaseEvent {
	return BaseEvent{
		Type:       name,
		Data:       payload,
		RunID:      correlationID,
		OccurredAt: time.Now(),
	}
}
