package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/account-api/internal/api"
	apiMiddleware "github.com/phrazzld/account-api/internal/api/middleware"
	"github.com/phrazzld/account-api/internal/platform/metrics"
	"github.com/phrazzld/account-api/internal/service/auth"
)

// setupRouter builds the router with all middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewSecurityHeadersMiddleware())
	r.Use(apiMiddleware.NewCORSMiddleware(app.config.CORS.AllowedOrigins))
	r.Use(apiMiddleware.NewMetricsMiddleware(app.metrics))

	accountHandler := api.NewAccountHandler(app.accountService, auth.NewResolver(), app.metrics, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api/users", func(r chi.Router) {
		r.With(app.rateLimiter.Middleware).Post("/register", accountHandler.Register)
		r.With(app.rateLimiter.Middleware).Post("/login", accountHandler.Login)
		r.Get("/{"+api.UserIDParam+"}", accountHandler.GetByID)
		r.With(authMiddleware.Authenticate).Put("/{"+api.UserIDParam+"}", accountHandler.Edit)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}
