// Package eventbus is an in-memory publish/subscribe bus used to decouple
// tool execution from observability consumers (the server attaches a logging
// subscriber at startup).
//
// Design:
//   - Buffered Go channel per topic.
//   - Publish is non-blocking: drops the event silently if a subscriber's
//     buffer is full. Events are fire-and-forget, nothing is persisted.
//   - Subscribe returns a read-only channel; the caller owns the consumption loop.
package eventbus

import "sync"

// Topics published by the BigQuery tool layer.
const (
	TopicToolInvoked      = "bq.tool.invoked"
	TopicApprovalRequired = "bq.approval.required"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is the interface for publishing and subscribing to topics.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) <-chan Event
}

const defaultBufferSize = 64

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// New returns a new in-memory Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]chan Event)}
}

// Subscribe registers a new subscriber for topic and returns a read-only channel.
// The caller must consume the channel to avoid dropped events.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, defaultBufferSize)
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends an Event to all subscribers of topic. If a subscriber's
// buffer is full the event is dropped.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	subs := b.subscribers[topic]
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
