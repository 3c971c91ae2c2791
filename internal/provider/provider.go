// Package provider defines the contracts every stock-image connector implements
// and the errors they report.
package provider

import (
	"context"
	"net/url"

	"github.com/vrsandeep/stockpile-go/internal/models"
)

// Item is a downloaded resource ready to be archived.
// Filename is empty when the provider does not suggest one.
type Item struct {
	Filename string
	Data     []byte
}

// Describer exposes the static information of a provider.
type Describer interface {
	Info() models.ProviderInfo
}

// Searcher queries a provider API for one page of resources.
type Searcher[T models.Resource] interface {
	Search(ctx context.Context, params url.Values, apiKey string) (*models.PagedResult[T], error)
}

// Downloader turns a resource into its full-resolution bytes.
type Downloader[T models.Resource] interface {
	Download(ctx context.Context, resource T, apiKey string) (*Item, error)
}

// Provider is the full contract of a connector.
type Provider[T models.Resource] interface {
	Describer
	Searcher[T]
	Downloader[T]
}

// CopyParams copies the allowed query parameters from src into dst, renaming
// them on the way. Empty values are skipped.
func CopyParams(dst, src url.Values, allowed map[string]string) {
	for in, out := range allowed {
		if v := src.Get(in); v != "" {
			dst.Set(out, v)
		}
	}
}

// TotalPages computes the page count for a result total.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
