package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaModel calls a local Ollama server's chat endpoint.
type OllamaModel struct {
	client *api.Client
}

// NewOllamaModel reads OLLAMA_HOST (or the default host) from the environment.
func NewOllamaModel() (*OllamaModel, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &OllamaModel{client: client}, nil
}

// Converse sends req as a non-streaming chat request.
func (m *OllamaModel) Converse(ctx context.Context, req Request) (*Response, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: req.ModelID,
		Messages: []api.Message{
			{Role: "user", Content: req.Prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var content strings.Builder
	err := m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	if content.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	return &Response{Segments: []string{content.String()}, ModelID: req.ModelID}, nil
}
