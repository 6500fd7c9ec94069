package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicPrefix namespaces per-run event topics on the in-process bus.
const TopicPrefix = "pipeline.events."

// Frame is the wire form of an event on the in-process bus and in the SSE
// stream: one JSON object per event.
type Frame struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	RunID     string                 `json:"run_id"`
	Timestamp time.Time              `json:"timestamp"`
}

// ChannelSink publishes events to a watermill gochannel topic per run. The
// streaming transport subscribes to the run's topic and relays frames to the
// client as they arrive.
type ChannelSink struct {
	pubSub *gochannel.GoChannel
}

func NewChannelSink(pubSub *gochannel.GoChannel) *ChannelSink {
	return &ChannelSink{pubSub: pubSub}
}

// Topic returns the bus topic carrying one run's events.
func Topic(runID string) string {
	return TopicPrefix + runID
}

func (s *ChannelSink) Emit(name string, payload map[string]interface{}, correlationID string) {
	frame := Frame{
		Event:     name,
		Data:      payload,
		RunID:     correlationID,
		Timestamp: time.Now(),
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	// With no subscriber on the topic the publish is a no-op; an error here
	// only means the bus is closed.
	_ = s.pubSub.Publish(Topic(correlationID), msg)
}

// Subscribe returns the frame channel for one run. The caller owns ctx and
// should cancel it when the client goes away.
func (s *ChannelSink) Subscribe(ctx context.Context, runID string) (<-chan *message.Message, error) {
	return s.pubSub.Subscribe(ctx, Topic(runID))
}
