// Package pexels is the connector for the Pexels photo API.
package pexels

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

const defaultBaseURL = "https://api.pexels.com/v1/"

// searchParams maps the accepted query parameters to their API names.
var searchParams = map[string]string{
	"per_page":    "per_page",
	"page":        "page",
	"orientation": "orientation",
	"color":       "color",
	"locale":      "locale",
}

type searchResponse struct {
	Page         int                  `json:"page"`
	PerPage      int                  `json:"per_page"`
	TotalResults int                  `json:"total_results"`
	NextPage     string               `json:"next_page"`
	Photos       []models.PexelsPhoto `json:"photos"`
}

type Pexels struct {
	client  *fetch.Client
	baseURL string
	limit   int
}

// New creates a connector. An empty BaseURL uses the public API.
func New(client *fetch.Client, cfg config.ProviderConfig) *Pexels {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Pexels{client: client, baseURL: base, limit: cfg.Limit}
}

func (p *Pexels) Info() models.ProviderInfo {
	return models.ProviderInfo{ID: config.ProviderPexels, Name: "Pexels", Limit: p.limit}
}

func authHeader(apiKey string) http.Header {
	return http.Header{"Authorization": {apiKey}}
}

// Search runs a photo search. The "query" parameter is required.
func (p *Pexels) Search(ctx context.Context, params url.Values, apiKey string) (*models.PagedResult[models.PexelsPhoto], error) {
	query := params.Get("query")
	if query == "" {
		return nil, provider.ErrMissingQuery
	}
	q := url.Values{}
	q.Set("query", query)
	provider.CopyParams(q, params, searchParams)

	var resp searchResponse
	if err := provider.GetJSON(ctx, p.client, config.ProviderPexels, p.baseURL+"search?"+q.Encode(), authHeader(apiKey), &resp); err != nil {
		return nil, err
	}
	photos := resp.Photos
	if photos == nil {
		photos = []models.PexelsPhoto{}
	}
	return &models.PagedResult[models.PexelsPhoto]{
		Results:    photos,
		Page:       resp.Page,
		PerPage:    resp.PerPage,
		Total:      resp.TotalResults,
		TotalPages: provider.TotalPages(resp.TotalResults, resp.PerPage),
	}, nil
}

// Download fetches the original rendition of a photo. Pexels does not
// suggest a filename.
func (p *Pexels) Download(ctx context.Context, photo models.PexelsPhoto, apiKey string) (*provider.Item, error) {
	id := models.Identify(photo)
	src := photo.Src.Original
	if src == "" {
		return nil, &provider.FetchError{ResourceID: id, Err: fmt.Errorf("photo %s has no original source", id)}
	}
	data, err := p.client.Bytes(ctx, src, nil)
	if err != nil {
		return nil, &provider.FetchError{ResourceID: id, Err: err}
	}
	return &provider.Item{Data: data}, nil
}
