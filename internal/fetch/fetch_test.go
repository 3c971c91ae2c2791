package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "jpeg-bytes")
	})
	mux.HandleFunc("/auth.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "secret-bytes")
	})
	mux.HandleFunc("/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Resource not found"}`)
	})
	mux.HandleFunc("/broken.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	})

	return httptest.NewServer(mux)
}

func TestBytes(t *testing.T) {
	server := setupTestServer()
	defer server.Close()
	c := New(5*time.Second, 0)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		data, err := c.Bytes(ctx, server.URL+"/ok.jpg", nil)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
	})

	t.Run("Sends headers", func(t *testing.T) {
		data, err := c.Bytes(ctx, server.URL+"/auth.jpg", http.Header{"Authorization": {"key"}})
		require.NoError(t, err)
		assert.Equal(t, "secret-bytes", string(data))
	})

	t.Run("Server message is kept", func(t *testing.T) {
		_, err := c.Bytes(ctx, server.URL+"/gone.jpg", nil)
		var fe *Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Equal(t, "Resource not found", fe.Message)
	})

	t.Run("Generic message without JSON body", func(t *testing.T) {
		_, err := c.Bytes(ctx, server.URL+"/broken.jpg", nil)
		var fe *Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
		assert.Equal(t, genericMessage, fe.Message)
	})

	t.Run("Network failure", func(t *testing.T) {
		_, err := c.Bytes(ctx, "http://127.0.0.1:1/none.jpg", nil)
		var fe *Error
		require.True(t, errors.As(err, &fe))
		assert.Zero(t, fe.StatusCode)
		assert.NotNil(t, fe.Unwrap())
	})
}

func TestPacing(t *testing.T) {
	server := setupTestServer()
	defer server.Close()
	c := New(5*time.Second, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Bytes(context.Background(), server.URL+"/ok.jpg", nil)
		require.NoError(t, err)
	}
	// One burst token, then two waits.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
