package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"text2sql-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher sends pipeline events to the NATS bus for durable audit.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Ensure the "PIPELINE" stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "PIPELINE",
		Subjects:  []string{"pipeline.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream 'PIPELINE': %v", err)
		// Don't fail hard here, maybe it already exists or NATS isn't ready
	}

	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends an event to NATS.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(map[string]interface{}{
		"payload":        event.Payload(),
		"correlation_id": event.CorrelationID(),
		"timestamp":      event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := fmt.Sprintf("pipeline.%s", event.EventType())

	_, err = p.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}

	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// Sink adapts Publisher to the events.Sink contract. Emit never blocks the
// caller: delivery runs in its own goroutine with a timeout, and failures
// only produce a warning log.
type Sink struct {
	publisher *Publisher
}

func NewSink(publisher *Publisher) *Sink {
	return &Sink{publisher: publisher}
}

func (s *Sink) Emit(name string, payload map[string]interface{}, correlationID string) {
	if s.publisher == nil {
		return
	}
	event := events.NewBase(name, payload, correlationID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("Warn: event %s not delivered to NATS: %v", name, err)
		}
	}()
}
