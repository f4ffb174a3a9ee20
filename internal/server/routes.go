package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/video/generate", h.GenerateVideo)
	mux.HandleFunc("POST /api/video/generate/async", h.GenerateVideoAsync)
	mux.HandleFunc("GET /api/video/status/{id}", h.VideoStatus)
	mux.HandleFunc("POST /api/video/stream", h.StreamVideo)

	mux.HandleFunc("POST /api/extract", h.Extract)

	mux.HandleFunc("GET /api/media", h.MediaList)
	mux.HandleFunc("GET /api/media/{key}", h.MediaGet)
	mux.HandleFunc("DELETE /api/media/{key}", h.MediaDelete)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
