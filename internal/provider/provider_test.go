package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deskhive/deskhive/internal/config"
)

func TestParseModelString(t *testing.T) {
	tests := []struct {
		in            string
		wantProvider  string
		wantModelName string
	}{
		{"openai/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"Gemini/gemini-2.0-flash", "gemini", "gemini-2.0-flash"},
		{"openrouter/meta-llama/llama-3-70b", "openrouter", "meta-llama/llama-3-70b"},
		{"gpt-4o", "", "gpt-4o"},
	}
	for _, tt := range tests {
		p, m := ParseModelString(tt.in)
		if p != tt.wantProvider || m != tt.wantModelName {
			t.Errorf("ParseModelString(%q) = (%q, %q), want (%q, %q)",
				tt.in, p, m, tt.wantProvider, tt.wantModelName)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{429, ErrUnavailable},
		{500, ErrUnavailable},
		{503, ErrUnavailable},
		{400, ErrRejected},
		{401, ErrRejected},
		{404, ErrRejected},
	}
	for _, tt := range tests {
		err := classifyStatus("openai", tt.status, "body")
		if !errors.Is(err, tt.want) {
			t.Errorf("classifyStatus(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestClassifyTransportTimeout(t *testing.T) {
	err := classifyTransport("openai", context.DeadlineExceeded)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline exceeded should classify as timeout: %v", err)
	}
	err = classifyTransport("openai", errors.New("connection refused"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("connection refused should classify as unavailable: %v", err)
	}
}

func TestOpenAICompleteRoundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{
			"choices": [{"message": {"content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("openai", "key", srv.URL, "test-model", time.Second)
	resp, err := b.Complete(context.Background(), &CompletionRequest{
		System: "sys", Prompt: "hi", MaxOutputTokens: 100,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "hello" || resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAICompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewOpenAIBackend("openai", "key", srv.URL, "test-model", time.Second)
	_, err := b.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Provider != "openai" {
		t.Errorf("err = %v, want BackendError with provider", err)
	}
}

func TestResolveKnownProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.Name = "openai/gpt-4o-mini"
	cfg.Providers.OpenAI.APIKey = "k"
	if _, err := Resolve(cfg); err != nil {
		t.Errorf("openai: %v", err)
	}

	cfg.Model.Name = "gemini/gemini-2.0-flash"
	cfg.Providers.Gemini.APIKey = "k"
	if _, err := Resolve(cfg); err != nil {
		t.Errorf("gemini: %v", err)
	}

	cfg.Model.Name = "vllm/local-model"
	cfg.Providers.VLLM.APIBase = "http://localhost:8000/v1"
	if _, err := Resolve(cfg); err != nil {
		t.Errorf("vllm: %v", err)
	}
}

func TestResolveMissingKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.Name = "openai/gpt-4o-mini"
	_, err := Resolve(cfg)
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want ResolveError", err)
	}
}

func TestResolveUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.Name = "mystery/model"
	if _, err := Resolve(cfg); err == nil {
		t.Fatal("unknown provider should fail")
	}
}
