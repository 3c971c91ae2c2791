package api

// This file contains the middleware that resolves the provider named in the URL.

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/stockpile-go/internal/core"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const bindingContextKey = contextKey("binding")

// ProviderMiddleware looks up the {provider} URL parameter and injects its
// binding into the request's context for downstream handlers to use.
func (s *Server) ProviderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, ok := s.app.Binding(chi.URLParam(r, "provider"))
		if !ok {
			RespondWithError(w, http.StatusNotFound, "Provider not found")
			return
		}
		ctx := context.WithValue(r.Context(), bindingContextKey, b)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bindingFrom(r *http.Request) core.Binding {
	return r.Context().Value(bindingContextKey).(core.Binding)
}

// apiKey returns the key for the request's provider. The X-Api-Key header
// overrides the session keyring.
func (s *Server) apiKey(r *http.Request) string {
	return s.app.APIKey(chi.URLParam(r, "provider"), r.Header.Get("X-Api-Key"))
}
