package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oakhealth/medrag/internal/http/handlers"
	httpmiddleware "github.com/oakhealth/medrag/internal/http/middleware"
	"github.com/oakhealth/medrag/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *handlers.ChatHandler
	Sessions           *handlers.SessionsHandler
	Health             *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminAuthSecret    string

	// Rate limiting for the chat endpoint; zero disables it.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/", cfg.Health.Root)
		public.Get("/health", cfg.Health.Health)

		chat := public
		if cfg.RateLimitPerSecond > 0 {
			chat = public.With(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		chat.Post("/enhanced-chat", cfg.Chat.Handle)

		public.Get("/conversation-history/{sessionID}", cfg.Sessions.History)
		public.Delete("/reset-conversation/{sessionID}", cfg.Sessions.Reset)

		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints
	r.Group(func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		admin.Get("/session-stats", cfg.Sessions.Stats)
		admin.Get("/debug/session/{sessionID}", cfg.Sessions.Debug)
	})

	return r
}
