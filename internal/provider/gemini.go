package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiDefaultBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend implements Backend using the Gemini REST API.
type GeminiBackend struct {
	apiKey       string
	apiBase      string
	defaultModel string
	httpClient   *http.Client
}

// NewGeminiBackend creates a Gemini backend using a static API key.
func NewGeminiBackend(apiKey, defaultModel string, timeout time.Duration) *GeminiBackend {
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiBackend{
		apiKey:       apiKey,
		apiBase:      geminiDefaultBase,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (b *GeminiBackend) DefaultModel() string {
	return b.defaultModel
}

func (b *GeminiBackend) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = b.defaultModel
	}

	gemReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: req.MaxOutputTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.System != "" {
		gemReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	jsonBody, err := json.Marshal(gemReq)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", b.apiBase, model, b.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("gemini", resp.StatusCode, string(respBody))
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return nil, &BackendError{Provider: "gemini", Kind: ErrRejected, Detail: "unparsable response body"}
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return nil, &BackendError{Provider: "gemini", Kind: ErrRejected, Detail: "response contains no candidates"}
	}

	cand := gemResp.Candidates[0]
	var text string
	for _, part := range cand.Content.Parts {
		text += part.Text
	}

	return &CompletionResponse{
		Text:         text,
		FinishReason: cand.FinishReason,
		Usage: Usage{
			InputTokens:  gemResp.UsageMetadata.PromptTokenCount,
			OutputTokens: gemResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  gemResp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// --- Gemini request/response types ---

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate   `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
