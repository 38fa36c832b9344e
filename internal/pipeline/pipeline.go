// Package pipeline runs an uploaded document through extraction, risk
// classification, response generation and PDF rendering.
package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/castlemilk/regresponse/internal/extraction"
	"github.com/castlemilk/regresponse/internal/generation"
	"github.com/castlemilk/regresponse/internal/render"
)

// ErrNoText is returned when a document yields no usable text. Risk
// classification and generation do not run in that case.
var ErrNoText = errors.New("no text extracted")

// Input is one document to process.
type Input struct {
	Filename  string
	Data      []byte
	QueryType string
}

// Analysis is everything derived from a document before rendering.
type Analysis struct {
	Text       string
	RiskLevel  extraction.RiskLevel
	Preview    string
	Generation generation.Result
}

// Pipeline wires the processing stages together.
type Pipeline struct {
	extractor *extraction.Extractor
	generator *generation.Generator
	logger    *zap.Logger
}

// New creates a pipeline.
func New(extractor *extraction.Extractor, generator *generation.Generator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{extractor: extractor, generator: generator, logger: logger}
}

// Extractor exposes the extractor, e.g. for capability checks.
func (p *Pipeline) Extractor() *extraction.Extractor {
	return p.extractor
}

// Analyze extracts text and, if there is any, classifies it, builds the
// preview and generates the response. Extraction errors are returned as is.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	text, err := p.extractor.Extract(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	a := &Analysis{
		Text:      text,
		RiskLevel: extraction.ClassifyRisk(text),
		Preview:   extraction.Preview(text),
	}
	a.Generation = p.generator.Generate(ctx, text, in.QueryType)

	p.logger.Debug("document analyzed",
		zap.String("filename", in.Filename),
		zap.Int("chars", len(text)),
		zap.String("risk_level", string(a.RiskLevel)),
		zap.String("generation_source", string(a.Generation.Source)),
	)
	return a, nil
}

// Run analyzes in and writes the response PDF to w.
func (p *Pipeline) Run(ctx context.Context, in Input, w io.Writer) (*Analysis, error) {
	a, err := p.Analyze(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := render.Render(w, a.Generation.Text); err != nil {
		return nil, err
	}
	return a, nil
}
