package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIBackend implements Backend using the OpenAI-compatible chat API.
// It also serves Anthropic, OpenRouter, DeepSeek, Groq, and vLLM endpoints,
// which all speak the same wire format.
type OpenAIBackend struct {
	providerID   string
	apiKey       string
	apiBase      string
	defaultModel string
	httpClient   *http.Client
}

// NewOpenAIBackend creates a new OpenAI-compatible backend.
func NewOpenAIBackend(providerID, apiKey, apiBase, defaultModel string, timeout time.Duration) *OpenAIBackend {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIBackend{
		providerID:   providerID,
		apiKey:       apiKey,
		apiBase:      strings.TrimSuffix(apiBase, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// DefaultModel returns the configured default model.
func (b *OpenAIBackend) DefaultModel() string {
	return b.defaultModel
}

// Complete sends a completion request to the OpenAI-compatible API.
func (b *OpenAIBackend) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = b.defaultModel
	}

	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  req.MaxOutputTokens,
		"temperature": req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", b.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(b.providerID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(b.providerID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(b.providerID, resp.StatusCode, string(respBody))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &BackendError{Provider: b.providerID, Kind: ErrRejected, Detail: "unparsable response body"}
	}
	if len(apiResp.Choices) == 0 {
		return nil, &BackendError{Provider: b.providerID, Kind: ErrRejected, Detail: "response contains no choices"}
	}

	choice := apiResp.Choices[0]
	return &CompletionResponse{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  apiResp.Usage.PromptTokens,
			OutputTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:  apiResp.Usage.TotalTokens,
		},
	}, nil
}

// --- OpenAI API response types ---

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIMessage struct {
	Content string `json:"content"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
