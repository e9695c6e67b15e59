package services

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Default OpenAI models.
const (
	DefaultOpenAITextModel  = openai.GPT4oMini
	DefaultOpenAIImageModel = openai.CreateImageModelDallE3
)

// OpenAIBackend generates text with chat completions and images with the
// images API.
type OpenAIBackend struct {
	client     *openai.Client
	textModel  string
	imageModel string
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend creates an OpenAI client. cfg.BaseURL overrides the API
// endpoint.
func NewOpenAIBackend(cfg Config) *OpenAIBackend {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	b := &OpenAIBackend{
		client:     openai.NewClientWithConfig(cc),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}
	if b.textModel == "" {
		b.textModel = DefaultOpenAITextModel
	}
	if b.imageModel == "" {
		b.imageModel = DefaultOpenAIImageModel
	}
	return b
}

// GenerateText implements Backend.
func (b *OpenAIBackend) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", b.textModel, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage implements Backend. Images are requested portrait, the
// closest the API offers to 9:16.
func (b *OpenAIBackend) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := b.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          b.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1792,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai %s: %w", b.imageModel, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding openai image: %w", err)
	}
	return data, nil
}
