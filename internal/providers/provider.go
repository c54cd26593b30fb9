package providers

import (
	"context"
	"fmt"
	"time"
)

// GenerateRequest is a single prompt sent to a generation service.
type GenerateRequest struct {
	System string
	Prompt string
}

// GenerateResponse holds the completed text for one request.
type GenerateResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Generator is the provider abstraction interface.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// ModelInfo describes a model installed on a generation service.
type ModelInfo struct {
	Name string
	Size int64
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Options configures a provider. Callers supply every value; providers do
// not fall back to built-in endpoints or model names.
type Options struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// New creates a provider by name.
func New(provider string, opts Options) (Generator, error) {
	switch provider {
	case "ollama":
		return NewOllama(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
