// Package api exposes MovieMatch to the mobile app as a JSON HTTP API.
package api

import (
	"fmt"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/Belphemur/MovieMatch/internal/dashboard"
	"github.com/Belphemur/MovieMatch/internal/metadata"
	"github.com/Belphemur/MovieMatch/internal/models"
	"github.com/Belphemur/MovieMatch/internal/recommend"
	"github.com/Belphemur/MovieMatch/internal/services"
	"github.com/Belphemur/MovieMatch/internal/session"
)

// SessionHeader carries the opaque session token in both directions
const SessionHeader = "X-Session-Token"

// Deps are the collaborators the handlers call into
type Deps struct {
	Metadata    metadata.Client
	Recommender recommend.Client
	Dashboard   *dashboard.Aggregator
	Accounts    *services.AccountService
	Assistant   *services.Assistant
	Sessions    *session.Store

	// MinLiked is the liked set size required by GET /v1/recommendations
	MinLiked int
	// AuthRequestsPerMinute limits /v1/auth per client IP. Zero disables the limit.
	AuthRequestsPerMinute int
}

// Handler serves the API
type Handler struct {
	deps Deps
}

// NewHandler creates a Handler
func NewHandler(deps Deps) *Handler {
	if deps.MinLiked <= 0 {
		deps.MinLiked = models.MinLikedForRecommendations
	}
	return &Handler{deps: deps}
}

// Router builds the chi route tree
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true, Timeout: 2 * time.Second}).Handle)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.withSession)

		r.Route("/auth", func(r chi.Router) {
			if h.deps.AuthRequestsPerMinute > 0 {
				r.Use(httprate.LimitByIP(h.deps.AuthRequestsPerMinute, time.Minute))
			}
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/logout", h.logout)
		})
		r.Get("/usernames/{username}/availability", h.usernameAvailability)
		r.Put("/likes", h.updateLikes)

		r.Get("/dashboard", h.dashboard)
		r.Get("/recommendations", h.recommendations)

		r.Get("/search", h.search)
		r.Get("/genres/{kind}", h.genres)
		r.Get("/discover/{kind}", h.discover)
		r.Get("/titles/{kind}/{id}", h.title)
		r.Get("/titles/{kind}/{id}/providers", h.providers)

		r.Get("/watchlist", h.watchlist)
		r.Post("/watchlist", h.addToWatchlist)

		r.Get("/assistant/prompts", h.assistantPrompts)
		r.Post("/assistant/messages", h.assistantMessage)
	})

	return r
}

// NewHTTPServer wraps handler in a server listening on address:port
func NewHTTPServer(address string, port int, handler http.Handler) *http.Server {
	if port == 0 {
		port = 8080
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
