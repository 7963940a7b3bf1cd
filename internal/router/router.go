package router

import (
	"net/http"

	"halloween-rock-api/internal/handler"
	"halloween-rock-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	CatalogHandler *handler.CatalogHandler
	PlayerHandler  *handler.PlayerHandler
	SessionHandler *handler.SessionHandler
	AdminHandler   *handler.AdminHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		// API v1 routes
		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Session endpoints
			if cfg.SessionHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/session", cfg.SessionHandler.StartSession)
					r.Post("/revoke", cfg.SessionHandler.RevokeSession)
					r.Post("/refresh", cfg.SessionHandler.RefreshSession)
				})
			}

			// Catalog endpoints
			if cfg.CatalogHandler != nil {
				r.Route("/catalog", func(r chi.Router) {
					r.Get("/", cfg.CatalogHandler.List)
					r.Get("/{item_id}", cfg.CatalogHandler.Get)
				})
			}

			// Player progression endpoints
			if cfg.PlayerHandler != nil {
				r.Route("/players/{player_id}", func(r chi.Router) {
					r.Get("/state", cfg.PlayerHandler.GetState)
					r.Post("/tap", cfg.PlayerHandler.Tap)
					r.Post("/purchase", cfg.PlayerHandler.Purchase)
					r.Post("/equip", cfg.PlayerHandler.Equip)
					r.Get("/passive-rate", cfg.PlayerHandler.PassiveRate)
					r.Get("/soundboard", cfg.PlayerHandler.Soundboard)
					r.Get("/purchases", cfg.PlayerHandler.ListPurchases)
				})
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/health", cfg.AdminHandler.GetHealth)
				})
			}
		})
	})

	return r
}
