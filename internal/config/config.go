// Package config provides configuration types and loading for deskhive.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Storage, Model, Providers, Governor, Learning, Notify, Scheduler.
type Config struct {
	Storage   StorageConfig   `json:"storage"`
	Model     ModelConfig     `json:"model"`
	Providers ProvidersConfig `json:"providers"`
	Governor  GovernorConfig  `json:"governor"`
	Learning  LearningConfig  `json:"learning"`
	Notify    NotifyConfig    `json:"notify"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// ---------------------------------------------------------------------------
// Storage – database location
// ---------------------------------------------------------------------------

// StorageConfig groups persistence settings.
type StorageConfig struct {
	Path string `json:"path"`
}

// ---------------------------------------------------------------------------
// Model – inference behaviour
// ---------------------------------------------------------------------------

// ModelConfig groups inference model settings. Name uses "provider/model"
// form, e.g. "openai/gpt-4o-mini".
type ModelConfig struct {
	Name            string  `json:"name" envconfig:"MODEL"`
	MaxOutputTokens int     `json:"maxOutputTokens" envconfig:"MAX_OUTPUT_TOKENS"`
	Temperature     float64 `json:"temperature" envconfig:"TEMPERATURE"`
	TimeoutSeconds  int     `json:"timeoutSeconds" envconfig:"TIMEOUT_SECONDS"`
}

// Timeout returns the bounded per-call deadline for inference requests.
func (m ModelConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// ---------------------------------------------------------------------------
// Providers – inference API keys & endpoints
// ---------------------------------------------------------------------------

// ProvidersConfig contains inference backend configurations.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `json:"openai"`
	Anthropic  ProviderConfig `json:"anthropic"`
	Gemini     ProviderConfig `json:"gemini"`
	OpenRouter ProviderConfig `json:"openrouter"`
	DeepSeek   ProviderConfig `json:"deepseek"`
	Groq       ProviderConfig `json:"groq"`
	VLLM       ProviderConfig `json:"vllm"`
}

// ProviderConfig contains settings for a single inference backend.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" envconfig:"API_KEY"`
	APIBase string `json:"apiBase,omitempty" envconfig:"API_BASE"`
}

// ---------------------------------------------------------------------------
// Governor – pricing
// ---------------------------------------------------------------------------

// GovernorConfig contains the per-model price table. Rate and cost limits are
// admin settings read from the store, not process config (see Settings).
type GovernorConfig struct {
	Pricing map[string]ModelPricing `json:"pricing"`
}

// ModelPricing holds per-million-token prices for one model.
type ModelPricing struct {
	InputPerMTokens  float64 `json:"inputPerMTokens"`
	OutputPerMTokens float64 `json:"outputPerMTokens"`
}

// ---------------------------------------------------------------------------
// Learning – background knowledge pipeline
// ---------------------------------------------------------------------------

// LearningConfig contains worker settings for the learning pipeline.
type LearningConfig struct {
	QueueSize      int `json:"queueSize" envconfig:"QUEUE_SIZE"`
	SweepBatchSize int `json:"sweepBatchSize" envconfig:"SWEEP_BATCH_SIZE"`
}

// ---------------------------------------------------------------------------
// Notify – outbound event sinks
// ---------------------------------------------------------------------------

// NotifyConfig contains outbound notification sink configurations.
type NotifyConfig struct {
	Slack SlackSinkConfig `json:"slack"`
	Kafka KafkaSinkConfig `json:"kafka"`
}

// SlackSinkConfig configures the Slack webhook sink.
type SlackSinkConfig struct {
	Enabled    bool   `json:"enabled" envconfig:"ENABLED"`
	WebhookURL string `json:"webhookUrl" envconfig:"WEBHOOK_URL"`
}

// KafkaSinkConfig configures the Kafka event topic sink.
type KafkaSinkConfig struct {
	Enabled bool     `json:"enabled" envconfig:"ENABLED"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic" envconfig:"TOPIC"`
}

// ---------------------------------------------------------------------------
// Scheduler – periodic sweeps
// ---------------------------------------------------------------------------

// SchedulerConfig contains settings for the periodic job runner.
type SchedulerConfig struct {
	Enabled      bool          `json:"enabled" envconfig:"ENABLED"`
	TickInterval time.Duration `json:"tickInterval"`
	SweepCron    string        `json:"sweepCron" envconfig:"SWEEP_CRON"`
	MaxConcLLM   int           `json:"maxConcLLM"`
	LockPath     string        `json:"lockPath"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{},
		Model: ModelConfig{
			Name:            "openai/gpt-4o-mini",
			MaxOutputTokens: 1024,
			Temperature:     0.2,
			TimeoutSeconds:  60,
		},
		Governor: GovernorConfig{
			Pricing: map[string]ModelPricing{
				"gpt-4o-mini":      {InputPerMTokens: 0.15, OutputPerMTokens: 0.60},
				"gpt-4o":           {InputPerMTokens: 2.50, OutputPerMTokens: 10.00},
				"gemini-2.0-flash": {InputPerMTokens: 0.10, OutputPerMTokens: 0.40},
			},
		},
		Learning: LearningConfig{
			QueueSize:      64,
			SweepBatchSize: 10,
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,
			TickInterval: 60 * time.Second,
			SweepCron:    "*/15 * * * *",
			MaxConcLLM:   2,
		},
	}
}
