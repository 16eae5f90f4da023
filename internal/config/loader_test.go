package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("DESKHIVE_CONFIG", filepath.Join(t.TempDir(), "config.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "openai/gpt-4o-mini" {
		t.Errorf("model = %q, want default", cfg.Model.Name)
	}
	if cfg.Learning.SweepBatchSize != 10 {
		t.Errorf("sweep batch = %d, want 10", cfg.Learning.SweepBatchSize)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("DESKHIVE_CONFIG", path)

	data := `{
		"model": {"name": "gemini/gemini-2.0-flash", "maxOutputTokens": 2048},
		"storage": {"path": "/tmp/deskhive-test.db"}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	// File overrides defaults.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "gemini/gemini-2.0-flash" || cfg.Model.MaxOutputTokens != 2048 {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Storage.Path != "/tmp/deskhive-test.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}

	// Environment overrides the file.
	t.Setenv("DESKHIVE_MODEL_MODEL", "openai/gpt-4o")
	t.Setenv("DESKHIVE_OPENAI_API_KEY", "env-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load with env: %v", err)
	}
	if cfg.Model.Name != "openai/gpt-4o" {
		t.Errorf("model = %q, want env override", cfg.Model.Name)
	}
	if cfg.Providers.OpenAI.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.Providers.OpenAI.APIKey)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("DESKHIVE_CONFIG", path)
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("malformed config must fail loudly")
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv("DESKHIVE_CONFIG", path)

	cfg := DefaultConfig()
	cfg.Model.Name = "groq/llama-3.1-8b-instant"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model.Name != cfg.Model.Name {
		t.Errorf("roundtrip model = %q", loaded.Model.Name)
	}
}
