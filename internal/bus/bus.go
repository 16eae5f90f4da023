// Package bus provides the async event bus that decouples the pipeline from
// notification sinks.
package bus

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the pipeline.
const (
	EventAutoResponseApplied = "auto_response_applied"
	EventTicketEscalated     = "ticket_escalated"
	EventArticlePublished    = "article_published"
)

// Event is one pipeline occurrence. TicketID is zero and ArticleID empty when
// not applicable.
type Event struct {
	Type      string         `json:"type"`
	TicketID  int64          `json:"ticket_id,omitempty"`
	ArticleID string         `json:"article_id,omitempty"`
	Team      string         `json:"team,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventBus fans events out to subscribers. Publication is fire-and-forget;
// a full buffer drops the event rather than stalling the pipeline.
type EventBus struct {
	events  chan *Event
	subs    map[string][]func(*Event)
	dropped int64
	mu      sync.RWMutex
}

// NewEventBus creates an event bus with a bounded buffer.
func NewEventBus() *EventBus {
	return &EventBus{
		events: make(chan *Event, 100),
		subs:   make(map[string][]func(*Event)),
	}
}

// Publish enqueues an event. Never blocks; events beyond the buffer are
// counted and dropped.
func (b *EventBus) Publish(ev *Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case b.events <- ev:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
	}
}

// Subscribe registers a callback for one event type. Use "*" to receive
// everything.
func (b *EventBus) Subscribe(eventType string, callback func(*Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[eventType] = append(b.subs[eventType], callback)
}

// Dispatch runs the fan-out loop. This should be run as a goroutine.
func (b *EventBus) Dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-b.events:
			b.mu.RLock()
			callbacks := append([]func(*Event){}, b.subs[ev.Type]...)
			callbacks = append(callbacks, b.subs["*"]...)
			b.mu.RUnlock()

			for _, cb := range callbacks {
				cb(ev)
			}
		}
	}
}

// Pending returns the number of undispatched events.
func (b *EventBus) Pending() int {
	return len(b.events)
}

// Dropped returns how many events were discarded on a full buffer.
func (b *EventBus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
