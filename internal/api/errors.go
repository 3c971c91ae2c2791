package api

import (
	"errors"
	"net/http"

	"github.com/vrsandeep/stockpile-go/internal/collection"
	"github.com/vrsandeep/stockpile-go/internal/core"
	"github.com/vrsandeep/stockpile-go/internal/pipeline"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

// RespondWithDomainError maps the errors of the collection, pipeline and
// provider packages to HTTP status codes.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	var apiErr *provider.APIError
	switch {
	case errors.Is(err, collection.ErrBusy), errors.Is(err, pipeline.ErrRunInProgress):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, collection.ErrLimitReached):
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pipeline.ErrEmptyCollection), errors.Is(err, provider.ErrMissingQuery),
		errors.Is(err, core.ErrInvalidResource):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		// Authentication and quota problems are the caller's to fix.
		code := http.StatusBadGateway
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			code = apiErr.StatusCode
		}
		RespondWithError(w, code, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
