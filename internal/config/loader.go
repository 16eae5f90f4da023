package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".deskhive"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DESKHIVE_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults

	// Override with environment variables for each group
	envconfig.Process("DESKHIVE_STORAGE", &cfg.Storage)
	envconfig.Process("DESKHIVE_MODEL", &cfg.Model)
	envconfig.Process("DESKHIVE_OPENAI", &cfg.Providers.OpenAI)
	envconfig.Process("DESKHIVE_ANTHROPIC", &cfg.Providers.Anthropic)
	envconfig.Process("DESKHIVE_GEMINI", &cfg.Providers.Gemini)
	envconfig.Process("DESKHIVE_OPENROUTER", &cfg.Providers.OpenRouter)
	envconfig.Process("DESKHIVE_DEEPSEEK", &cfg.Providers.DeepSeek)
	envconfig.Process("DESKHIVE_GROQ", &cfg.Providers.Groq)
	envconfig.Process("DESKHIVE_VLLM", &cfg.Providers.VLLM)
	envconfig.Process("DESKHIVE_LEARNING", &cfg.Learning)
	envconfig.Process("DESKHIVE_NOTIFY_SLACK", &cfg.Notify.Slack)
	envconfig.Process("DESKHIVE_NOTIFY_KAFKA", &cfg.Notify.Kafka)
	envconfig.Process("DESKHIVE_SCHEDULER", &cfg.Scheduler)

	// Fallback for API key
	if cfg.Providers.OpenAI.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.Providers.OpenAI.APIKey = key
		}
	}

	// Expand ~ in paths
	expandHome := func(p *string) {
		if strings.HasPrefix(*p, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				*p = filepath.Join(home, (*p)[1:])
			}
		}
	}
	expandHome(&cfg.Storage.Path)
	expandHome(&cfg.Scheduler.LockPath)

	if cfg.Storage.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.Path = filepath.Join(home, ConfigDir, "deskhive.db")
		} else {
			cfg.Storage.Path = "deskhive.db"
		}
	}
	if cfg.Scheduler.LockPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Scheduler.LockPath = filepath.Join(home, ConfigDir, "scheduler.lock")
		}
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
