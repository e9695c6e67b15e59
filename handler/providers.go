package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RiteshF7/instaauto/generators"
	"github.com/RiteshF7/instaauto/pipeline"
	"github.com/RiteshF7/instaauto/services"
)

// Core provides everything needed to compose quote cards: logger, config,
// fonts, overlay, generation services and the composer. Both the server and
// the batch tool build on it.
var Core = fx.Provide(
	NewLogger,
	NewConfigProvider,
	NewConfig,
	NewFontResolver,
	NewOverlay,
	NewBackend,
	NewQuoteService,
	NewImageService,
	NewComposer,
)

// NewLogger returns a new *zap.Logger
func NewLogger() (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.DisableStacktrace = true

	return zapConfig.Build()
}

// NewFontResolver returns the resolver for the overlay font.
func NewFontResolver(cfg Config, logger *zap.Logger) *generators.FontResolver {
	return generators.NewFontResolver(cfg.Fonts, generators.WithFontLogger(logger.Named("fonts")))
}

// NewOverlay returns the compositor with the configured colours.
func NewOverlay(fonts *generators.FontResolver, cfg Config) (*generators.Overlay, error) {
	fill, err := colorful.Hex(cfg.Overlay.Fill)
	if err != nil {
		return nil, fmt.Errorf("overlay fill colour %q: %w", cfg.Overlay.Fill, err)
	}
	shadow, err := colorful.Hex(cfg.Overlay.Shadow)
	if err != nil {
		return nil, fmt.Errorf("overlay shadow colour %q: %w", cfg.Overlay.Shadow, err)
	}
	return generators.NewOverlay(fonts, generators.WithColors(fill, shadow)), nil
}

// NewBackend returns the generation backend. Without an API key it returns a
// nil backend: quotes and captions become placeholders and image generation
// fails.
func NewBackend(cfg Config, logger *zap.Logger) (services.Backend, error) {
	b, err := services.NewBackend(context.Background(), cfg.Generation)
	if errors.Is(err, services.ErrMissingAPIKey) {
		logger.Warn("No API key configured, generation is disabled",
			zap.String("provider", cfg.Generation.Provider))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewQuoteService returns the quote and caption service.
func NewQuoteService(backend services.Backend, logger *zap.Logger) *services.QuoteService {
	return services.NewQuoteService(backend, logger.Named("quotes"))
}

// NewImageService returns the image service with the configured retry policy.
func NewImageService(backend services.Backend, cfg Config, logger *zap.Logger) *services.ImageService {
	retry := services.Retry{Attempts: cfg.Generation.Attempts, Backoff: cfg.Generation.Backoff}
	return services.NewImageService(backend, retry, logger.Named("images"))
}

// NewComposer returns the quote card composer.
func NewComposer(
	quotes *services.QuoteService,
	images *services.ImageService,
	overlay *generators.Overlay,
	cfg Config,
	logger *zap.Logger,
) *pipeline.Composer {
	pos := generators.ParsePosition(cfg.Overlay.Position)
	return pipeline.NewComposer(quotes, images, overlay, pos, logger.Named("composer"))
}
