// Package httpapi exposes the portfolio over JSON/HTTP for the browser
// client. Routes other than login, logout and health require a bearer
// access token.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 60 * time.Second

// NewRouter registers every route on a chi mux.
func NewRouter(h *Handler, jwtSecret []byte, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(jwtSecret))

		r.Get("/api/auth/profile", h.handleGetProfile)
		r.Put("/api/auth/profile", h.handleUpdateProfile)

		r.Route("/api/portfolio", func(r chi.Router) {
			r.Post("/allocations", h.handleSubmitAllocation)
			r.Get("/totals", h.handleGetTotals)
			r.Post("/totals/recompute", h.handleRecomputeTotals)
			r.Get("/details/{kind}", h.handleGetDetails)
			r.Get("/transaction-history/{kind}", h.handleHistory)
			r.Post("/targets", h.handleSaveTargets)
			r.Delete("/data", h.handleClear)
		})

		r.Route("/api/master-data/{kind}", func(r chi.Router) {
			r.Get("/", h.handleListCatalog)
			r.Post("/", h.handleAddCatalog)
			r.Put("/{id}", h.handleUpdateCatalog)
			r.Delete("/{id}", h.handleDeactivateCatalog)
		})
	})

	return r
}
