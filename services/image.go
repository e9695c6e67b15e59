package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/RiteshF7/instaauto/prompts"
)

const (
	imagePromptMarker = "Image Prompt:"
	progressionMarker = "Progression Text:"
)

// ImageService generates the background image for a quote.
type ImageService struct {
	backend Backend
	retry   Retry
	logger  *zap.Logger
}

// NewImageService returns an ImageService. Zero retry values mean three
// attempts two seconds apart.
func NewImageService(backend Backend, retry Retry, logger *zap.Logger) *ImageService {
	if retry.Attempts == 0 {
		retry.Attempts = 3
	}
	if retry.Backoff == 0 {
		retry.Backoff = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{backend: backend, retry: retry, logger: logger}
}

// Image asks the text model to describe a scene for quote, then renders that
// description with the image model.
func (s *ImageService) Image(ctx context.Context, quote string) (image.Image, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}

	template := prompts.ForQuote(prompts.Image, quote)
	scene := template
	if answer, err := s.backend.GenerateText(ctx, template); err != nil {
		s.logger.Warn("Image prompt generation failed, using template", zap.Error(err))
	} else {
		scene = ExtractImagePrompt(answer)
	}
	s.logger.Info("Generating image", zap.String("prompt", truncate(scene, 100)))

	var data []byte
	err := s.retry.Do(ctx, s.logger, "generate image", func(ctx context.Context) error {
		var err error
		data, err = s.backend.GenerateImage(ctx, scene)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding generated image: %w", err)
	}
	s.logger.Info("Generated image",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return img, nil
}

// ExtractImagePrompt returns the text between "Image Prompt:" and
// "Progression Text:". Answers without the marker are returned whole.
func ExtractImagePrompt(answer string) string {
	_, after, found := strings.Cut(answer, imagePromptMarker)
	if !found {
		return strings.TrimSpace(answer)
	}
	before, _, _ := strings.Cut(after, progressionMarker)
	return strings.TrimSpace(before)
}
