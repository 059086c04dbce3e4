package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/askdb/config"
	gemini_provider "github.com/mohammad-safakhou/askdb/provider/gemini"
	local_provider "github.com/mohammad-safakhou/askdb/provider/local"
	openai_provider "github.com/mohammad-safakhou/askdb/provider/openai"
)

// Client represents different generation backends
type Client string

const (
	Gemini Client = "gemini"
	OpenAI Client = "openai"
	Local  Client = "local"
)

// Provider is the interface that all generation backends must satisfy.
// Generate sends one prompt and returns the model's raw text; retries are
// the caller's concern, never the backend's.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New creates a generation backend based on the provided configuration
func New(cfg config.ProviderConfig) (Provider, error) {
	switch Client(cfg.Kind) {
	case Gemini, "":
		if cfg.APIKey == "" {
			return nil, errors.New("missing Gemini API key")
		}
		return gemini_provider.New(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout), nil
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("missing OpenAI API key")
		}
		return openai_provider.New(cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case Local:
		return local_provider.New(cfg.Endpoint, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.Kind)
	}
}
