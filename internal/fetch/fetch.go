// Package fetch downloads raw bytes over HTTP for every provider. Requests go
// out one at a time through a shared pacer.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const genericMessage = "could not download the image"

// Error is a failed download. StatusCode is zero for network failures.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Client wraps an http.Client with a rate limiter.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client. A zero timeout means requests never time out;
// a zero interval disables pacing.
func New(timeout, interval time.Duration) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// NewWithHTTPClient is used by tests to inject a transport.
func NewWithHTTPClient(client *http.Client) *Client {
	return &Client{http: client, limiter: rate.NewLimiter(rate.Inf, 1)}
}

// HTTPClient exposes the underlying client for API calls that share the pacer.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Do sends the request once the pacer allows it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// Bytes performs a GET of url and returns the body of a successful response.
func (c *Client) Bytes(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Message: fmt.Sprintf("invalid download URL: %v", err), Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Message: fmt.Sprintf("failed to read image data: %v", err), Err: err}
	}
	return data, nil
}

// serverMessage extracts the "message" field of a JSON error body.
func serverMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil || payload.Message == "" {
		return genericMessage
	}
	return payload.Message
}
