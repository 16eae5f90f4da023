package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishSubscribeDispatch(t *testing.T) {
	b := NewEventBus()

	var escalated, all atomic.Int32
	b.Subscribe(EventTicketEscalated, func(ev *Event) { escalated.Add(1) })
	b.Subscribe("*", func(ev *Event) { all.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Dispatch(ctx)

	b.Publish(&Event{Type: EventTicketEscalated, TicketID: 1, Team: "tier2"})
	b.Publish(&Event{Type: EventArticlePublished, ArticleID: "a1"})

	deadline := time.After(time.Second)
	for all.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("dispatch timed out: escalated=%d all=%d", escalated.Load(), all.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if escalated.Load() != 1 {
		t.Errorf("escalated = %d, want 1", escalated.Load())
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewEventBus()
	// No dispatcher running; overflow the buffer.
	for i := 0; i < 150; i++ {
		b.Publish(&Event{Type: EventAutoResponseApplied, TicketID: int64(i)})
	}
	if b.Dropped() == 0 {
		t.Error("expected drops on a full buffer")
	}
	if b.Pending() != 100 {
		t.Errorf("pending = %d, want buffer capacity", b.Pending())
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	b := NewEventBus()
	ev := &Event{Type: EventArticlePublished}
	b.Publish(ev)
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
}
