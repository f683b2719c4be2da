package router

import (
	"net/http"

	"skinchanger-api/internal/handler"
	"skinchanger-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AuthHandler       *handler.AuthHandler
	SkinConfigHandler *handler.SkinConfigHandler
	AdminHandler      *handler.AdminHandler
	AuthMiddleware    func(http.Handler) http.Handler
	AdminMiddleware   func(http.Handler) http.Handler
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
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/health", cfg.Handler.Health)
		r.Get("/api/status", cfg.Handler.Status)
	}
	if cfg.AuthHandler != nil {
		r.Post("/api/auth/register", cfg.AuthHandler.Register)
		r.Post("/api/auth/login", cfg.AuthHandler.Login)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		if cfg.AuthHandler != nil {
			r.Get("/api/auth/verify", cfg.AuthHandler.Verify)
			r.Post("/api/auth/generate-api-token", cfg.AuthHandler.GenerateAPIToken)
		}

		if cfg.SkinConfigHandler != nil {
			r.Route("/api/config", func(r chi.Router) {
				r.Get("/", cfg.SkinConfigHandler.List)
				r.Post("/", cfg.SkinConfigHandler.Upsert)
				r.Delete("/", cfg.SkinConfigHandler.DeleteAll)
				r.Get("/{id}", cfg.SkinConfigHandler.Get)
				r.Delete("/{id}", cfg.SkinConfigHandler.Delete)
			})
		}

		// ADMIN routes (role re-checked per request)
		if cfg.AdminHandler != nil {
			r.Group(func(r chi.Router) {
				if cfg.AdminMiddleware != nil {
					r.Use(cfg.AdminMiddleware)
				}

				r.Route("/api/admin", func(r chi.Router) {
					r.Get("/users", cfg.AdminHandler.ListUsers)
					r.Get("/users/{id}", cfg.AdminHandler.GetUser)
					r.Patch("/users/{id}/status", cfg.AdminHandler.UpdateUserStatus)
					r.Post("/users/{id}/assign-license", cfg.AdminHandler.AssignLicense)
					r.Delete("/users/{id}", cfg.AdminHandler.DeleteUser)

					r.Get("/licenses", cfg.AdminHandler.ListLicenses)
					r.Post("/licenses/generate", cfg.AdminHandler.GenerateLicenses)
					r.Delete("/licenses/{id}", cfg.AdminHandler.DeleteLicense)

					r.Get("/stats", cfg.AdminHandler.GetStats)
				})
			})
		}
	})

	return r
}
