package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/generators"
	"github.com/RiteshF7/instaauto/httpserver"
)

// NewHTTPServer provides a new HTTP server listener
func NewHTTPServer(
	mux *mux.Router,
	cfg Config,
) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
}

// StartServer starts the HTTP server
func StartServer(server *http.Server, lc fx.Lifecycle, logger *zap.Logger) {
	h := httpserver.NewHandle(server)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := h.Start(ctx); err != nil {
				return err
			}
			logger.Info("HTTP server listening", zap.Stringer("addr", h.Addr()))
			return nil
		},
		OnStop: h.Shutdown,
	})
}

// WarmFontCache resolves the overlay font in the background at startup so the
// first request does not wait for the download.
func WarmFontCache(fonts *generators.FontResolver, lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				face := fonts.Resolve(1)
				logger.Info("Font cache ready",
					zap.String("path", fonts.Path()),
					zap.Bool("fallback", face.Fallback),
				)
			}()
			return nil
		},
	})
}
