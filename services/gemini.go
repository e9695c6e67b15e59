package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Default Gemini models.
const (
	DefaultGeminiTextModel  = "gemini-2.5-flash"
	DefaultGeminiImageModel = "gemini-2.5-flash-image"
)

// GeminiBackend generates text and images through the Gemini API.
type GeminiBackend struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

var _ Backend = (*GeminiBackend)(nil)

// NewGeminiBackend creates a Gemini API client.
func NewGeminiBackend(ctx context.Context, cfg Config) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	b := &GeminiBackend{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}
	if b.textModel == "" {
		b.textModel = DefaultGeminiTextModel
	}
	if b.imageModel == "" {
		b.imageModel = DefaultGeminiImageModel
	}
	return b, nil
}

// GenerateText implements Backend.
func (b *GeminiBackend) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.textModel, userContent(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", b.textModel, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage implements Backend.
func (b *GeminiBackend) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.imageModel, userContent(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", b.imageModel, err)
	}
	return responseImage(resp)
}

func userContent(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// responseImage returns the first inline image of any candidate.
func responseImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil {
		return nil, ErrNoImage
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	if text := responseText(resp); text != "" {
		return nil, fmt.Errorf("%w: model answered with text %q", ErrNoImage, truncate(text, 100))
	}
	return nil, ErrNoImage
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
