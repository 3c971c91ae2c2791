// Handlers for the per-provider collections.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ResourcesPayload is the body of add and remove requests. Resources keep the
// record shape the provider's search returned.
type ResourcesPayload struct {
	Resources json.RawMessage `json:"resources"`
}

// TogglePayload is the body of a toggle request.
type TogglePayload struct {
	Resource json.RawMessage `json:"resource"`
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, bindingFrom(r).Snapshot())
}

func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request) {
	var payload ResourcesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Resources) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	b := bindingFrom(r)
	res, err := b.AddMany(payload.Resources)
	if err != nil {
		RespondWithDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"result":     res,
		"collection": b.Snapshot(),
	})
}

func (s *Server) handleRemoveItems(w http.ResponseWriter, r *http.Request) {
	var payload ResourcesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Resources) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	b := bindingFrom(r)
	removed, err := b.RemoveMany(payload.Resources)
	if err != nil {
		RespondWithDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"removed":    removed,
		"collection": b.Snapshot(),
	})
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	var payload TogglePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Resource) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	selected, err := bindingFrom(r).Toggle(payload.Resource)
	if err != nil {
		RespondWithDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"selected": selected})
}

func (s *Server) handleClearCollection(w http.ResponseWriter, r *http.Request) {
	if err := bindingFrom(r).Clear(); err != nil {
		RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemPreview(w http.ResponseWriter, r *http.Request) {
	previewURL, ok := bindingFrom(r).PreviewURL(chi.URLParam(r, "resourceID"))
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Resource is not in the collection")
		return
	}

	thumb, err := s.app.Previews().Get(r.Context(), previewURL)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, "Failed to load the preview")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(thumb)
}
