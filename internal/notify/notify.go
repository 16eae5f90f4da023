// Package notify delivers pipeline events to external sinks. Delivery is
// best-effort: a sink failure is logged and never propagates back into the
// pipeline.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deskhive/deskhive/internal/bus"
)

// Sink delivers one event to an external system.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev *bus.Event) error
}

// Attach subscribes sinks to every bus event.
func Attach(events *bus.EventBus, logger *slog.Logger, sinks ...Sink) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, sink := range sinks {
		s := sink
		events.Subscribe("*", func(ev *bus.Event) {
			if err := s.Deliver(context.Background(), ev); err != nil {
				logger.Warn("notification delivery failed",
					"sink", s.Name(), "event", ev.Type, "error", err)
			}
		})
	}
}

// summarize renders an event as a one-line human message.
func summarize(ev *bus.Event) string {
	switch ev.Type {
	case bus.EventAutoResponseApplied:
		return fmt.Sprintf("Auto-response applied to ticket #%d", ev.TicketID)
	case bus.EventTicketEscalated:
		return fmt.Sprintf("Ticket #%d escalated to %s", ev.TicketID, ev.Team)
	case bus.EventArticlePublished:
		title, _ := ev.Detail["title"].(string)
		return fmt.Sprintf("Knowledge article published: %s", title)
	default:
		return fmt.Sprintf("Event %s", ev.Type)
	}
}
