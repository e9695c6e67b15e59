// Package pipeline strings the generation services and the overlay together.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/generators"
	"github.com/RiteshF7/instaauto/services"
)

// QuoteSource produces quotes and captions.
type QuoteSource interface {
	Quote(ctx context.Context, topic, description string) services.Quote
	Caption(ctx context.Context, quote string) string
}

// ImageSource produces the background image for a quote.
type ImageSource interface {
	Image(ctx context.Context, quote string) (image.Image, error)
}

// Painter draws a quote onto an image.
type Painter interface {
	Apply(src image.Image, text string, pos generators.Position) (*image.RGBA, error)
}

var (
	_ QuoteSource = (*services.QuoteService)(nil)
	_ ImageSource = (*services.ImageService)(nil)
	_ Painter     = (*generators.Overlay)(nil)
)

// Artifact is one finished quote card.
type Artifact struct {
	Entity    string
	Quote     string
	Caption   string
	Image     *image.RGBA
	CreatedAt time.Time
}

// Composer builds artifacts.
type Composer struct {
	quotes   QuoteSource
	images   ImageSource
	painter  Painter
	position generators.Position
	logger   *zap.Logger
	now      func() time.Time
}

// NewComposer returns a Composer that places text at position.
func NewComposer(quotes QuoteSource, images ImageSource, painter Painter, position generators.Position, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		quotes:   quotes,
		images:   images,
		painter:  painter,
		position: generators.ParsePosition(string(position)),
		logger:   logger,
		now:      time.Now,
	}
}

// Compose generates a quote for topic, its caption and its image, and draws
// the quote onto the image. Only image generation can fail; quote and caption
// failures have already become placeholders.
func (c *Composer) Compose(ctx context.Context, topic, description string) (*Artifact, error) {
	q := c.quotes.Quote(ctx, topic, description)
	caption := c.quotes.Caption(ctx, q.Text)

	img, err := c.images.Image(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("image for %q: %w", q.Entity, err)
	}

	card, err := c.painter.Apply(img, q.Text, c.position)
	if err != nil {
		return nil, fmt.Errorf("overlay for %q: %w", q.Entity, err)
	}

	c.logger.Info("Composed quote card",
		zap.String("entity", q.Entity),
		zap.Bool("placeholder_quote", q.Placeholder),
		zap.Int("width", card.Bounds().Dx()),
		zap.Int("height", card.Bounds().Dy()),
	)
	return &Artifact{
		Entity:    q.Entity,
		Quote:     q.Text,
		Caption:   caption,
		Image:     card,
		CreatedAt: c.now(),
	}, nil
}
