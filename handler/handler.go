package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/generators"
	"github.com/RiteshF7/instaauto/pipeline"
)

const maxRequestBytes = 1 << 16

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	Description string `json:"description"`
}

// GenerateResponse is a finished quote card. ImageURL is a PNG data URI.
type GenerateResponse struct {
	Entity   string `json:"entity"`
	Quote    string `json:"quote"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CardComposer builds quote cards.
type CardComposer interface {
	Compose(ctx context.Context, topic, description string) (*pipeline.Artifact, error)
}

// QuoteCardRouter handles HTTP requests for quote cards, with logging
type QuoteCardRouter struct {
	logger         *zap.Logger
	composer       CardComposer
	staticDir      string
	requestTimeout time.Duration
}

// NewQuoteCardRouter returns a new QuoteCardRouter backed by composer
func NewQuoteCardRouter(
	logger *zap.Logger,
	composer *pipeline.Composer,
	cfg Config,
) *QuoteCardRouter {
	return newQuoteCardRouter(logger, composer, cfg.HTTP)
}

func newQuoteCardRouter(logger *zap.Logger, composer CardComposer, cfg HTTPConfig) *QuoteCardRouter {
	return &QuoteCardRouter{
		logger:         logger,
		composer:       composer,
		staticDir:      cfg.StaticDir,
		requestTimeout: cfg.RequestTimeout,
	}
}

// GenerateHandler composes a quote card for the requested topic.
func (s *QuoteCardRouter) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	var req GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.Info("Rejected request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	card, err := s.composer.Compose(ctx, req.Prompt, req.Description)
	if err != nil {
		logger.Error("Quote card generation failed", zap.String("prompt", req.Prompt), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "image generation failed"})
		return
	}

	uri, err := generators.EncodeDataURI(card.Image)
	if err != nil {
		logger.Error("Encoding quote card failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not encode image"})
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Entity:   card.Entity,
		Quote:    card.Quote,
		Caption:  card.Caption,
		ImageURL: uri,
	})
}

// HealthHandler reports that the server is up.
func (s *QuoteCardRouter) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type requestIDKey struct{}

func (s *QuoteCardRouter) requestLogger(r *http.Request) *zap.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware tags every request with an id and logs its outcome.
func (s *QuoteCardRouter) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("Handled HTTP request",
			zap.String("request_id", id),
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewServerRouter returns a new mux.Router for the API and the static site
func NewServerRouter(s *QuoteCardRouter) *mux.Router {
	router := mux.NewRouter()
	router.Use(s.LoggingMiddleware)
	router.HandleFunc("/api/generate", s.GenerateHandler).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	return router
}
