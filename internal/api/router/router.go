// Package router assembles the HTTP surface.
package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digital-twin-ai/platform/internal/admin"
	"github.com/digital-twin-ai/platform/internal/bookings"
	"github.com/digital-twin-ai/platform/internal/chat"
	httpmiddleware "github.com/digital-twin-ai/platform/internal/http/middleware"
	"github.com/digital-twin-ai/platform/internal/visitors"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ChatHandler     *chat.Handler
	VisitorsHandler *visitors.Handler
	BookingsHandler *bookings.Handler
	StatsHandler    *admin.StatsHandler
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string

	// Per-IP token bucket on the model-facing routes. Zero disables it.
	ChatRatePerSecond float64
	ChatRateBurst     int

	// Reported by /health so deploys can see what this instance runs with.
	DatabaseConfigured bool
	LLMConfigured      bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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

	r.Get("/health", healthCheck(cfg))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Model-facing routes carry the rate limit; the LLM is the most
	// expensive thing behind this server.
	r.Group(func(limited chi.Router) {
		if cfg.ChatRatePerSecond > 0 {
			limited.Use(httpmiddleware.RateLimit(cfg.ChatRatePerSecond, cfg.ChatRateBurst))
		}
		if cfg.ChatHandler != nil {
			limited.Post("/chat", cfg.ChatHandler.Chat)
			limited.Post("/voice", cfg.ChatHandler.Voice)
		}
	})

	if cfg.ChatHandler != nil {
		r.Get("/conversations/{id}", cfg.ChatHandler.GetConversation)
	}
	if cfg.VisitorsHandler != nil {
		r.Post("/visitors", cfg.VisitorsHandler.Create)
	}
	if cfg.BookingsHandler != nil {
		r.Post("/bookings", cfg.BookingsHandler.Upsert)
	}
	if cfg.StatsHandler != nil {
		r.Get("/admin/stats", cfg.StatsHandler.ServeHTTP)
	}

	return r
}

func healthCheck(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  cfg.DatabaseConfigured,
			"llm":       cfg.LLMConfigured,
		})
	}
}
