// Handlers for bulk downloads, their history and the finished archives.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/stockpile-go/internal/artifacts"
)

func (s *Server) handleStartDownload(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request; it stops with the application.
	run, err := bindingFrom(r).StartDownload(s.app.Context(), s.apiKey(r))
	if err != nil {
		RespondWithDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleDownloadStatus(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, bindingFrom(r).DownloadStatus())
}

func (s *Server) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	providerID := r.URL.Query().Get("provider")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := s.app.Store().ListRuns(providerID, limit)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list download history")
		return
	}
	RespondWithJSON(w, http.StatusOK, runs)
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Artifacts().List()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list archives")
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	f, info, err := s.app.Artifacts().Open(chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, artifacts.ErrInvalidName):
		RespondWithError(w, http.StatusBadRequest, "Invalid archive name")
		return
	case errors.Is(err, artifacts.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Archive not found")
		return
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, "Failed to open archive")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	http.ServeContent(w, r, info.Name, info.ModTime, f)
}
