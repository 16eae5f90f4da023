// Package provider implements inference backend interfaces and clients.
package provider

import (
	"context"
)

// Backend is the interface for text-inference clients. One adapter exists per
// backend family; callers never branch on model-name prefixes.
type Backend interface {
	// Complete sends a prompt and returns the completion with token accounting.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// CompletionRequest contains the parameters for a completion request.
type CompletionRequest struct {
	System          string
	Prompt          string
	Model           string
	MaxOutputTokens int
	Temperature     float64
}

// CompletionResponse contains the response from a completion request.
type CompletionResponse struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
