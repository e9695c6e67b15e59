package services

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/prompts"
)

// PlaceholderQuote is used whenever a quote cannot be generated.
const PlaceholderQuote = "Space is vast and full of mysteries."

const funFactPrefix = "fun fact:"

// Quote is a generated fact and the entity it is about.
type Quote struct {
	Entity string
	Text   string
	// Placeholder is set when Text is PlaceholderQuote because generation failed.
	Placeholder bool
}

// PlaceholderCaption is the caption used when one cannot be generated.
func PlaceholderCaption(quote string) string {
	return "✨ " + quote + " ✨\n\n#space #universe #cosmos"
}

// QuoteOption customizes a QuoteService.
type QuoteOption func(*QuoteService)

// WithRand sets the source used to pick random entities.
func WithRand(rng *rand.Rand) QuoteOption {
	return func(s *QuoteService) { s.rng = rng }
}

// QuoteService produces quotes and captions. It never fails: generation errors
// turn into placeholders.
type QuoteService struct {
	backend Backend
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuoteService returns a QuoteService on top of backend. backend may be nil,
// in which case every call returns placeholders.
func NewQuoteService(backend Backend, logger *zap.Logger, opts ...QuoteOption) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &QuoteService{
		backend: backend,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entity resolves a requested topic: empty or "random" picks a random entity.
func (s *QuoteService) Entity(topic string) string {
	entity := strings.TrimSpace(topic)
	if entity != "" && !strings.EqualFold(entity, "random") {
		return entity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return prompts.RandomEntity(s.rng)
}

// Quote generates a fact about topic. description, if set, is appended to the
// prompt as extra context.
func (s *QuoteService) Quote(ctx context.Context, topic, description string) Quote {
	q := Quote{Entity: s.Entity(topic)}

	if s.backend == nil {
		s.logger.Error("Cannot generate quote", zap.Error(ErrNoBackend))
		q.Text, q.Placeholder = PlaceholderQuote, true
		return q
	}

	prompt := prompts.ForEntity(q.Entity)
	if description = strings.TrimSpace(description); description != "" {
		prompt += "\n\nContext: " + description
	}

	text, err := s.backend.GenerateText(ctx, prompt)
	if err == nil {
		text = cleanQuote(text)
		if text == "" {
			err = ErrEmptyResponse
		}
	}
	if err != nil {
		s.logger.Error("Quote generation failed", zap.String("entity", q.Entity), zap.Error(err))
		q.Text, q.Placeholder = PlaceholderQuote, true
		return q
	}

	s.logger.Info("Generated quote", zap.String("entity", q.Entity), zap.String("quote", truncate(text, 50)))
	q.Text = text
	return q
}

// Caption generates a social media caption for quote.
func (s *QuoteService) Caption(ctx context.Context, quote string) string {
	if s.backend == nil {
		return PlaceholderCaption(quote)
	}
	caption, err := s.backend.GenerateText(ctx, prompts.ForQuote(prompts.Caption, quote))
	caption = strings.TrimSpace(caption)
	if err == nil && caption == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.logger.Error("Caption generation failed", zap.Error(err))
		return PlaceholderCaption(quote)
	}
	return caption
}

func cleanQuote(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= len(funFactPrefix) && strings.EqualFold(text[:len(funFactPrefix)], funFactPrefix) {
		text = strings.TrimSpace(text[len(funFactPrefix):])
	}
	return text
}
