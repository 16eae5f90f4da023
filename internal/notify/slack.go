package notify

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/deskhive/deskhive/internal/bus"
)

// SlackSink posts events to an incoming webhook.
type SlackSink struct {
	webhookURL string
}

func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{webhookURL: webhookURL}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Deliver(ctx context.Context, ev *bus.Event) error {
	return slack.PostWebhookContext(ctx, s.webhookURL, &slack.WebhookMessage{
		Text: summarize(ev),
	})
}
