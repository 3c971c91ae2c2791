package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var ErrMissingQuery = errors.New("a search term is required")

// APIError is a non-2xx answer of a provider API. Its message always ends
// with the status code.
type APIError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// ResolveError is a failure to obtain the download link of a resource.
type ResolveError struct {
	ResourceID string
	Err        error
}

func (e *ResolveError) Error() string { return e.Err.Error() }

func (e *ResolveError) Unwrap() error { return e.Err }

// FetchError is a failure to download the bytes of a resource.
type FetchError struct {
	ResourceID string
	Err        error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// IsRateLimited reports whether a download link request was refused because
// the usage quota is exhausted. Only link resolution carries this signal.
func IsRateLimited(err error) bool {
	var re *ResolveError
	if !errors.As(err, &re) {
		return false
	}
	var apiErr *APIError
	if errors.As(re.Err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return strings.HasSuffix(re.Error(), strconv.Itoa(http.StatusTooManyRequests))
}
