// Package inference adapts hosted language-model APIs to a single
// conversational request/response contract.
package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when a model answers without any text.
var ErrEmptyResponse = errors.New("inference: empty response")

// Request is a single-turn conversation: one user message plus sampling limits.
type Request struct {
	ModelID     string
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// Response holds the text segments of the model's first output message.
type Response struct {
	Segments []string
	ModelID  string
}

// FirstSegment returns the first text segment, or ErrEmptyResponse.
func (r *Response) FirstSegment() (string, error) {
	if r == nil || len(r.Segments) == 0 || strings.TrimSpace(r.Segments[0]) == "" {
		return "", ErrEmptyResponse
	}
	return r.Segments[0], nil
}

// Model is implemented by every provider.
type Model interface {
	Converse(ctx context.Context, req Request) (*Response, error)
}

// Provider names accepted by New.
const (
	ProviderBedrock = "bedrock"
	ProviderVertex  = "vertex"
	ProviderGemini  = "gemini"
	ProviderOllama  = "ollama"
)

// Config selects and configures a provider.
type Config struct {
	Provider     string
	AWSRegion    string
	GCPProject   string
	VertexRegion string
	GeminiAPIKey string
}

// New builds the model for cfg.Provider.
func New(ctx context.Context, cfg Config) (Model, error) {
	switch cfg.Provider {
	case ProviderBedrock:
		return NewBedrockModel(ctx, cfg.AWSRegion)
	case ProviderVertex:
		return NewVertexModel(ctx, cfg.GCPProject, cfg.VertexRegion)
	case ProviderGemini:
		return NewGeminiModel(cfg.GeminiAPIKey)
	case ProviderOllama:
		return NewOllamaModel()
	default:
		return nil, fmt.Errorf("unknown inference provider %q: supported providers are bedrock, vertex, gemini, ollama", cfg.Provider)
	}
}

// DefaultModelID returns the model used when none is configured.
func DefaultModelID(provider string) string {
	switch provider {
	case ProviderBedrock:
		return "anthropic.claude-3-haiku-20240307-v1:0"
	case ProviderVertex, ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "llama3.1"
	default:
		return ""
	}
}
