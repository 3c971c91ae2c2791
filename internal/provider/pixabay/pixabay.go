// Package pixabay is the connector for the Pixabay image API.
package pixabay

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

const (
	defaultBaseURL = "https://pixabay.com/api/"
	// Pixabay only echoes totals, so paging falls back to its documented defaults.
	defaultPerPage = 20
)

var searchParams = map[string]string{
	"per_page":    "per_page",
	"page":        "page",
	"orientation": "orientation",
	"color":       "colors",
	"lang":        "lang",
	"image_type":  "image_type",
	"order":       "order",
}

type searchResponse struct {
	Total     int                 `json:"total"`
	TotalHits int                 `json:"totalHits"`
	Hits      []models.PixabayHit `json:"hits"`
}

type Pixabay struct {
	client  *fetch.Client
	baseURL string
	limit   int
}

func New(client *fetch.Client, cfg config.ProviderConfig) *Pixabay {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Pixabay{client: client, baseURL: base, limit: cfg.Limit}
}

func (p *Pixabay) Info() models.ProviderInfo {
	return models.ProviderInfo{ID: config.ProviderPixabay, Name: "Pixabay", Limit: p.limit}
}

// Search runs an image search. The "q" parameter is required and the key
// travels in the query string.
func (p *Pixabay) Search(ctx context.Context, params url.Values, apiKey string) (*models.PagedResult[models.PixabayHit], error) {
	term := params.Get("q")
	if term == "" {
		return nil, provider.ErrMissingQuery
	}
	q := url.Values{}
	q.Set("q", term)
	q.Set("key", apiKey)
	provider.CopyParams(q, params, searchParams)

	var resp searchResponse
	if err := provider.GetJSON(ctx, p.client, config.ProviderPixabay, p.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	page := intParam(params, "page", 1)
	perPage := intParam(params, "per_page", defaultPerPage)
	hits := resp.Hits
	if hits == nil {
		hits = []models.PixabayHit{}
	}
	// totalHits is the number of results reachable through the API.
	return &models.PagedResult[models.PixabayHit]{
		Results:    hits,
		Page:       page,
		PerPage:    perPage,
		Total:      resp.TotalHits,
		TotalPages: provider.TotalPages(resp.TotalHits, perPage),
	}, nil
}

func intParam(params url.Values, name string, fallback int) int {
	n, err := strconv.Atoi(params.Get(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Download fetches the large rendition of a hit.
func (p *Pixabay) Download(ctx context.Context, hit models.PixabayHit, apiKey string) (*provider.Item, error) {
	id := models.Identify(hit)
	if hit.LargeImageURL == "" {
		return nil, &provider.FetchError{ResourceID: id, Err: fmt.Errorf("image %s has no large rendition", id)}
	}
	data, err := p.client.Bytes(ctx, hit.LargeImageURL, nil)
	if err != nil {
		return nil, &provider.FetchError{ResourceID: id, Err: err}
	}
	return &provider.Item{Data: data}, nil
}
