// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/stockpile-go/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app *core.App
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{app: app}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics

	r.Route("/api", func(r chi.Router) {
		// Searches and downloads talk to the providers, everything else is local.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/providers", s.handleListProviders)

			r.Get("/apikeys", s.handleListAPIKeys)
			r.Put("/apikeys/{provider}", s.handleSetAPIKey)

			r.Get("/downloads/history", s.handleDownloadHistory)
			r.Get("/artifacts", s.handleListArtifacts)
			r.Get("/artifacts/{name}", s.handleGetArtifact)

			// Maintenance jobs
			r.Route("/admin", func(r chi.Router) {
				r.Get("/jobs/status", s.handleGetAdminJobsStatus)
				r.Post("/jobs/run", s.handleRunAdminJob)
			})
		})

		r.With(s.ProviderMiddleware).Get("/providers/{provider}/search", s.handleProviderSearch)

		r.Route("/collections/{provider}", func(r chi.Router) {
			r.Use(s.ProviderMiddleware)

			r.Get("/", s.handleGetCollection)
			r.Delete("/", s.handleClearCollection)
			r.Post("/items", s.handleAddItems)
			r.Delete("/items", s.handleRemoveItems)
			r.Post("/toggle", s.handleToggleItem)
			r.Get("/items/{resourceID}/preview", s.handleItemPreview)

			r.Post("/download", s.handleStartDownload)
			r.Get("/download", s.handleDownloadStatus)
		})
	})

	// WebSocket route
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DB().Ping(); err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
