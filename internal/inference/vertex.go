package inference

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// VertexModel calls Gemini models through Vertex AI.
type VertexModel struct {
	client *genai.Client
}

// NewVertexModel creates a Vertex AI client for projectID in region.
func NewVertexModel(ctx context.Context, projectID, region string) (*VertexModel, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexModel{client: client}, nil
}

// Converse sends req.Prompt as a single text part.
func (m *VertexModel) Converse(ctx context.Context, req Request) (*Response, error) {
	model := m.client.GenerativeModel(req.ModelID)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(req.MaxTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("vertex generate content: %w", err)
	}

	segments := vertexSegments(resp)
	if len(segments) == 0 {
		return nil, ErrEmptyResponse
	}
	return &Response{Segments: segments, ModelID: req.ModelID}, nil
}

// Close releases the underlying client.
func (m *VertexModel) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// vertexSegments returns the text parts of the first candidate.
func vertexSegments(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var segments []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			segments = append(segments, string(txt))
		}
	}
	return segments
}
