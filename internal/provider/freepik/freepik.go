// Package freepik is the connector for the Freepik resources API. Freepik does
// not expose full-resolution files in search results; each download first
// requests a signed link for the resource.
package freepik

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

const (
	defaultBaseURL  = "https://api.freepik.com/v1/"
	defaultLanguage = "es-ES"
)

var errNoDownloadLink = errors.New("could not get the download URL")

// Plain parameters are copied as they are; filters use the bracketed form.
var searchParams = map[string]string{
	"limit": "limit",
	"page":  "page",
	"order": "order",
}

type searchResponse struct {
	Data []models.FreepikResource `json:"data"`
	Meta struct {
		CurrentPage int  `json:"current_page"`
		PerPage     int  `json:"per_page"`
		LastPage    int  `json:"last_page"`
		Total       int  `json:"total"`
		CleanSearch bool `json:"clean_search"`
	} `json:"meta"`
}

type downloadLink struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// downloadResponse accepts "data" as a list of links or as a single link.
type downloadResponse struct {
	Data []downloadLink
}

func (d *downloadResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data := bytes.TrimSpace(raw.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		d.Data = nil
		return nil
	case data[0] == '[':
		return json.Unmarshal(data, &d.Data)
	default:
		var one downloadLink
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		d.Data = []downloadLink{one}
		return nil
	}
}

type Freepik struct {
	client   *fetch.Client
	baseURL  string
	language string
	limit    int
}

func New(client *fetch.Client, cfg config.ProviderConfig) *Freepik {
	f := &Freepik{client: client, baseURL: cfg.BaseURL, language: cfg.Language, limit: cfg.Limit}
	if f.baseURL == "" {
		f.baseURL = defaultBaseURL
	}
	if f.language == "" {
		f.language = defaultLanguage
	}
	return f
}

func (f *Freepik) Info() models.ProviderInfo {
	return models.ProviderInfo{ID: config.ProviderFreepik, Name: "Freepik", Limit: f.limit, Indirect: true}
}

func (f *Freepik) header(apiKey string) http.Header {
	return http.Header{
		"X-Freepik-Api-Key": {apiKey},
		"Accept-Language":   {f.language},
	}
}

// Search lists resources matching "term".
func (f *Freepik) Search(ctx context.Context, params url.Values, apiKey string) (*models.PagedResult[models.FreepikResource], error) {
	term := params.Get("term")
	if term == "" {
		return nil, provider.ErrMissingQuery
	}
	q := url.Values{}
	q.Set("term", term)
	provider.CopyParams(q, params, searchParams)
	if v := params.Get("orientation"); v != "" {
		q.Set(fmt.Sprintf("filters[orientation][%s]", v), "1")
	}
	if v := params.Get("color"); v != "" {
		q.Set("filters[color]", v)
	}
	if v := params.Get("image_type"); v != "" {
		q.Set(fmt.Sprintf("filters[content_type][%s]", v), "1")
	}
	if v := params.Get("license"); v != "" {
		q.Set(fmt.Sprintf("filters[license][%s]", v), "1")
	}

	var resp searchResponse
	if err := provider.GetJSON(ctx, f.client, config.ProviderFreepik, f.baseURL+"resources?"+q.Encode(), f.header(apiKey), &resp); err != nil {
		return nil, err
	}
	data := resp.Data
	if data == nil {
		data = []models.FreepikResource{}
	}
	return &models.PagedResult[models.FreepikResource]{
		Results:    data,
		Page:       resp.Meta.CurrentPage,
		PerPage:    resp.Meta.PerPage,
		Total:      resp.Meta.Total,
		TotalPages: resp.Meta.LastPage,
	}, nil
}

// Download requests a signed link for the resource and then fetches it.
// Errors from the first step are *provider.ResolveError, errors from the
// second are *provider.FetchError.
func (f *Freepik) Download(ctx context.Context, res models.FreepikResource, apiKey string) (*provider.Item, error) {
	id := models.Identify(res)
	link, err := f.resolve(ctx, id, apiKey)
	if err != nil {
		return nil, &provider.ResolveError{ResourceID: id, Err: err}
	}
	data, err := f.client.Bytes(ctx, link.URL, nil)
	if err != nil {
		return nil, &provider.FetchError{ResourceID: id, Err: err}
	}
	return &provider.Item{Filename: link.Filename, Data: data}, nil
}

func (f *Freepik) resolve(ctx context.Context, id, apiKey string) (*downloadLink, error) {
	var resp downloadResponse
	endpoint := f.baseURL + "resources/" + url.PathEscape(id) + "/download/jpg"
	if err := provider.GetJSON(ctx, f.client, config.ProviderFreepik, endpoint, f.header(apiKey), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, errNoDownloadLink
	}
	return &resp.Data[0], nil
}
