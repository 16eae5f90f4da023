package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/deskhive/deskhive/internal/bus"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/faqcache"
	"github.com/deskhive/deskhive/internal/feedback"
	"github.com/deskhive/deskhive/internal/governor"
	"github.com/deskhive/deskhive/internal/knowledge"
	"github.com/deskhive/deskhive/internal/learning"
	"github.com/deskhive/deskhive/internal/ledger"
	"github.com/deskhive/deskhive/internal/notify"
	"github.com/deskhive/deskhive/internal/pipeline"
	"github.com/deskhive/deskhive/internal/provider"
	"github.com/deskhive/deskhive/internal/store"
	"github.com/deskhive/deskhive/internal/triage"
)

// app holds the wired component graph shared by the CLI commands.
type app struct {
	cfg      *config.Config
	store    *store.Store
	ledger   *ledger.Ledger
	governor *governor.Governor
	events   *bus.EventBus
	pipeline *pipeline.Pipeline
	sweeper  *learning.Sweeper
	articles *knowledge.Service
	feedback *feedback.Recorder
	sinks    []notify.Sink
	logger   *slog.Logger
}

// buildApp loads config and wires every component. The inference backend is
// resolved from the configured model string.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	backend, err := provider.Resolve(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("resolve provider: %w", err)
	}

	led := ledger.New(st.DB())
	pricing := governor.NewPriceTable(cfg.Governor.Pricing)
	gov := governor.New(led, pricing)
	cache := faqcache.New(st, logger)
	events := bus.NewEventBus()

	analyzer := triage.NewAnalyzer(st, st, gov, cache, led, backend, pricing, cfg.Model, logger)
	engine := learning.NewEngine(st, st, gov, led, backend, pricing, cfg.Model, logger)
	sweeper := learning.NewSweeper(engine, st, cfg.Learning, logger)
	pipe := pipeline.New(st, st, analyzer, engine, sweeper, events, logger)
	articles := knowledge.NewService(st, st, events, logger)
	recorder := feedback.NewRecorder(st, logger)

	var sinks []notify.Sink
	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.WebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.Notify.Slack.WebhookURL))
	}
	if cfg.Notify.Kafka.Enabled && len(cfg.Notify.Kafka.Brokers) > 0 {
		sinks = append(sinks, notify.NewKafkaSink(cfg.Notify.Kafka.Brokers, cfg.Notify.Kafka.Topic))
	}
	notify.Attach(events, logger, sinks...)

	return &app{
		cfg:      cfg,
		store:    st,
		ledger:   led,
		governor: gov,
		events:   events,
		pipeline: pipe,
		sweeper:  sweeper,
		articles: articles,
		feedback: recorder,
		sinks:    sinks,
		logger:   logger,
	}, nil
}

func (a *app) close() {
	for _, s := range a.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn("sink close failed", "sink", s.Name(), "error", err)
			}
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", "error", err)
	}
}
