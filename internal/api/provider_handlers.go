// Handlers for the provider list, searches and the session API keys.

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Providers())
}

func (s *Server) handleProviderSearch(w http.ResponseWriter, r *http.Request) {
	results, err := bindingFrom(r).Search(r.Context(), r.URL.Query(), s.apiKey(r))
	if err != nil {
		RespondWithDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	configured := make(map[string]bool)
	for _, p := range s.app.Providers() {
		configured[p.ID] = false
	}
	for _, id := range s.app.Keyring().Configured() {
		configured[id] = true
	}
	RespondWithJSON(w, http.StatusOK, configured)
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")
	if _, ok := s.app.Binding(providerID); !ok {
		RespondWithError(w, http.StatusNotFound, "Provider not found")
		return
	}

	var payload struct {
		APIKey string `json:"apikey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.app.Keyring().Set(providerID, strings.TrimSpace(payload.APIKey))
	w.WriteHeader(http.StatusNoContent)
}
