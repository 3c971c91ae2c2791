package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// Keys accepted by the fake provider APIs.
const (
	PexelsKey  = "pexels-test-key"
	PixabayKey = "pixabay-test-key"
	FreepikKey = "freepik-test-key"
)

// FailingResourceID is served with a 404 on every provider.
const FailingResourceID = 13

// TestJPEG returns a small solid JPEG image.
func TestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// NewFakeProviderServer starts one server that impersonates the Pexels,
// Pixabay and Freepik APIs under /pexels/, /pixabay/ and /freepik/.
// Searches return the ids 1, 2 and FailingResourceID; files are served under /files/.
func NewFakeProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server
	picture := TestJPEG(t, 640, 480)
	ids := []int{1, 2, FailingResourceID}

	fileURL := func(provider string, id int) string {
		return fmt.Sprintf("%s/files/%s/%d.jpg", server.URL, provider, id)
	}

	mux.HandleFunc("/pexels/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != PexelsKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		photos := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			photos = append(photos, map[string]any{
				"id":  id,
				"alt": fmt.Sprintf("photo %d", id),
				"src": map[string]string{"original": fileURL("pexels", id), "medium": fileURL("pexels", id)},
			})
		}
		writeJSON(w, map[string]any{"page": 1, "per_page": len(ids), "total_results": len(ids), "photos": photos})
	})

	mux.HandleFunc("/pixabay/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != PixabayKey {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		hits := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			hits = append(hits, map[string]any{
				"id":            id,
				"webformatURL":  fileURL("pixabay", id),
				"largeImageURL": fileURL("pixabay", id),
			})
		}
		writeJSON(w, map[string]any{"total": len(ids), "totalHits": len(ids), "hits": hits})
	})

	mux.HandleFunc("/freepik/resources", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-freepik-api-key") != FreepikKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		data := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			data = append(data, map[string]any{
				"id":    id,
				"image": map[string]any{"source": map[string]string{"url": fileURL("freepik", id)}},
			})
		}
		writeJSON(w, map[string]any{
			"data": data,
			"meta": map[string]int{"current_page": 1, "per_page": len(ids), "last_page": 1, "total": len(ids)},
		})
	})

	mux.HandleFunc("/freepik/resources/", func(w http.ResponseWriter, r *http.Request) {
		// /freepik/resources/{id}/download/jpg
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/freepik/resources/"), "/")
		id, err := strconv.Atoi(parts[0])
		if err != nil || len(parts) != 3 || parts[1] != "download" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-freepik-api-key") != FreepikKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"data": []map[string]string{{"filename": fmt.Sprintf("freepik-%d.jpg", id), "url": fileURL("freepik", id)}},
		})
	})

	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/"+strconv.Itoa(FailingResourceID)+".jpg") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(picture)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
