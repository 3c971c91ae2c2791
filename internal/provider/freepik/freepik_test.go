package freepik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/fetch"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

func setupTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	var server *httptest.Server

	authorized := func(r *http.Request) bool {
		return r.Header.Get("x-freepik-api-key") == "freepik-key"
	}

	mux.HandleFunc("/v1/resources", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "es-ES", r.Header.Get("Accept-Language"))
		q := r.URL.Query()
		assert.Equal(t, "mountain", q.Get("term"))
		assert.Equal(t, "1", q.Get("filters[orientation][landscape]"))
		assert.Equal(t, "blue", q.Get("filters[color]"))
		assert.Equal(t, "1", q.Get("filters[content_type][photo]"))
		assert.Equal(t, "1", q.Get("filters[license][freemium]"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":101,"title":"Mountain","image":{"source":{"url":"https://img.example/101.jpg"}}}],
			"meta":{"current_page":1,"per_page":1,"last_page":9,"total":9,"clean_search":false}}`)
	})
	mux.HandleFunc("/v1/resources/101/download/jpg", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []downloadLink{{Filename: "mountain.jpg", URL: server.URL + "/files/101.jpg"}},
		})
	})
	mux.HandleFunc("/v1/resources/102/download/jpg", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": downloadLink{Filename: "lake.jpg", URL: server.URL + "/files/102.jpg"},
		})
	})
	mux.HandleFunc("/v1/resources/103/download/jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("/v1/resources/104/download/jpg", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	mux.HandleFunc("/v1/resources/105/download/jpg", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []downloadLink{{Filename: "gone.jpg", URL: server.URL + "/files/missing.jpg"}},
		})
	})
	mux.HandleFunc("/files/101.jpg", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "resource-101")
	})
	mux.HandleFunc("/files/102.jpg", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "resource-102")
	})

	server = httptest.NewServer(mux)
	return server
}

func newTestProvider(server *httptest.Server) *Freepik {
	return New(fetch.New(5*time.Second, 0), config.ProviderConfig{BaseURL: server.URL + "/v1/", Limit: 50})
}

func TestFreepikSearch(t *testing.T) {
	server := setupTestServer(t)
	defer server.Close()
	f := newTestProvider(server)

	params := url.Values{
		"term":        {"mountain"},
		"orientation": {"landscape"},
		"color":       {"blue"},
		"image_type":  {"photo"},
		"license":     {"freemium"},
	}
	res, err := f.Search(context.Background(), params, "freepik-key")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(101), res.Results[0].ID)
	assert.Equal(t, "https://img.example/101.jpg", res.Results[0].PreviewURL())
	assert.Equal(t, 9, res.TotalPages)
	assert.Equal(t, 9, res.Total)

	_, err = f.Search(context.Background(), params, "wrong")
	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestFreepikDownload(t *testing.T) {
	server := setupTestServer(t)
	defer server.Close()
	f := newTestProvider(server)
	ctx := context.Background()

	t.Run("Resolve then fetch", func(t *testing.T) {
		item, err := f.Download(ctx, models.FreepikResource{ID: 101}, "freepik-key")
		require.NoError(t, err)
		assert.Equal(t, "mountain.jpg", item.Filename)
		assert.Equal(t, "resource-101", string(item.Data))
	})

	t.Run("Object form of the link", func(t *testing.T) {
		item, err := f.Download(ctx, models.FreepikResource{ID: 102}, "freepik-key")
		require.NoError(t, err)
		assert.Equal(t, "lake.jpg", item.Filename)
	})

	t.Run("Rate limited at resolution", func(t *testing.T) {
		_, err := f.Download(ctx, models.FreepikResource{ID: 103}, "freepik-key")
		var re *provider.ResolveError
		require.True(t, errors.As(err, &re))
		assert.True(t, provider.IsRateLimited(err))
	})

	t.Run("No link in the answer", func(t *testing.T) {
		_, err := f.Download(ctx, models.FreepikResource{ID: 104}, "freepik-key")
		var re *provider.ResolveError
		require.True(t, errors.As(err, &re))
		assert.ErrorIs(t, err, errNoDownloadLink)
		assert.False(t, provider.IsRateLimited(err))
	})

	t.Run("Fetch failure after resolution", func(t *testing.T) {
		_, err := f.Download(ctx, models.FreepikResource{ID: 105}, "freepik-key")
		var fe *provider.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "105", fe.ResourceID)
	})
}

func TestDownloadResponseUnmarshal(t *testing.T) {
	var d downloadResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":null}`), &d))
	assert.Empty(t, d.Data)
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"filename":"a.jpg","url":"u"}}`), &d))
	require.Len(t, d.Data, 1)
	assert.Equal(t, "a.jpg", d.Data[0].Filename)
	assert.Error(t, json.Unmarshal([]byte(`{"data":"nope"}`), &d))
}
