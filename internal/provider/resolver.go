package provider

import (
	"fmt"
	"strings"

	"github.com/deskhive/deskhive/internal/config"
)

// ParseModelString splits a "provider/model" string into provider ID and model name.
func ParseModelString(s string) (providerID, modelName string) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, "/", 2)
	if len(parts) < 2 {
		return "", s
	}
	return strings.ToLower(parts[0]), parts[1]
}

// Resolve constructs the Backend for the configured model string.
// A bare model name (no provider prefix) falls back to the OpenAI backend.
func Resolve(cfg *config.Config) (Backend, error) {
	provID, model := ParseModelString(cfg.Model.Name)
	if provID == "" {
		provID = "openai"
	}
	timeout := cfg.Model.Timeout()

	switch provID {
	case "openai":
		key := cfg.Providers.OpenAI.APIKey
		if key == "" {
			return nil, &ResolveError{Provider: "openai", Hint: "set providers.openai.apiKey in config or OPENAI_API_KEY"}
		}
		return NewOpenAIBackend("openai", key, cfg.Providers.OpenAI.APIBase, model, timeout), nil

	case "anthropic":
		key := cfg.Providers.Anthropic.APIKey
		base := cfg.Providers.Anthropic.APIBase
		if key == "" {
			return nil, &ResolveError{Provider: "anthropic", Hint: "set providers.anthropic.apiKey in config"}
		}
		if base == "" {
			base = "https://api.anthropic.com/v1"
		}
		return NewOpenAIBackend("anthropic", key, base, model, timeout), nil

	case "gemini":
		key := cfg.Providers.Gemini.APIKey
		if key == "" {
			return nil, &ResolveError{Provider: "gemini", Hint: "set providers.gemini.apiKey in config"}
		}
		return NewGeminiBackend(key, model, timeout), nil

	case "openrouter":
		key := cfg.Providers.OpenRouter.APIKey
		base := cfg.Providers.OpenRouter.APIBase
		if key == "" {
			return nil, &ResolveError{Provider: "openrouter", Hint: "set providers.openrouter.apiKey in config"}
		}
		if base == "" {
			base = "https://openrouter.ai/api/v1"
		}
		return NewOpenAIBackend("openrouter", key, base, model, timeout), nil

	case "deepseek":
		key := cfg.Providers.DeepSeek.APIKey
		base := cfg.Providers.DeepSeek.APIBase
		if key == "" {
			return nil, &ResolveError{Provider: "deepseek", Hint: "set providers.deepseek.apiKey in config"}
		}
		if base == "" {
			base = "https://api.deepseek.com/v1"
		}
		return NewOpenAIBackend("deepseek", key, base, model, timeout), nil

	case "groq":
		key := cfg.Providers.Groq.APIKey
		base := cfg.Providers.Groq.APIBase
		if key == "" {
			return nil, &ResolveError{Provider: "groq", Hint: "set providers.groq.apiKey in config"}
		}
		if base == "" {
			base = "https://api.groq.com/openai/v1"
		}
		return NewOpenAIBackend("groq", key, base, model, timeout), nil

	case "vllm":
		base := cfg.Providers.VLLM.APIBase
		if base == "" {
			return nil, &ResolveError{Provider: "vllm", Hint: "set providers.vllm.apiBase in config (e.g. http://localhost:8000/v1)"}
		}
		return NewOpenAIBackend("vllm", cfg.Providers.VLLM.APIKey, base, model, timeout), nil

	default:
		return nil, &ResolveError{Provider: provID, Hint: fmt.Sprintf("unknown provider ID %q (supported: openai, anthropic, gemini, openrouter, deepseek, groq, vllm)", provID)}
	}
}

// ResolveError is returned when a backend cannot be constructed.
type ResolveError struct {
	Provider string
	Hint     string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("provider %q: %s", e.Provider, e.Hint)
}
