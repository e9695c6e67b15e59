// Package services talks to the generative models: it turns a topic into a
// quote, a quote into a caption and a quote into an image.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by the services.
var (
	ErrNoBackend     = errors.New("services: no generation backend configured")
	ErrMissingAPIKey = errors.New("services: api key is not set")
	ErrNoImage       = errors.New("services: response contains no image")
	ErrEmptyResponse = errors.New("services: response contains no text")
)

// Backend is a generative model provider.
type Backend interface {
	// GenerateText returns the model's text answer to prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateImage returns encoded image bytes (PNG, JPEG or WebP) for prompt.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Providers understood by NewBackend.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures a Backend.
type Config struct {
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	TextModel  string        `yaml:"text_model"`
	ImageModel string        `yaml:"image_model"`
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
}

// NewBackend builds the backend named by cfg.Provider. An empty provider means
// Gemini.
func NewBackend(ctx context.Context, cfg Config) (Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGeminiBackend(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	default:
		return nil, fmt.Errorf("services: unknown provider %q", cfg.Provider)
	}
}
