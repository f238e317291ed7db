// Package transport abstracts the HTTP-shaped request/response channel the
// RSS client speaks to a server over, so the same client code can run
// against a real endpoint or an in-process mock (internal/mockserver).
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Endpoint is the capability trait a server address must satisfy: get and
// post, both returning the raw response body.
type Endpoint interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body []byte) ([]byte, error)
}

// HTTPEndpoint is an Endpoint backed by a real HTTP server.
type HTTPEndpoint struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPEndpoint constructs an HTTPEndpoint against baseURL, using
// http.DefaultClient if client is nil.
func NewHTTPEndpoint(baseURL string, client *http.Client) *HTTPEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEndpoint{BaseURL: baseURL, Client: client}
}

func (e *HTTPEndpoint) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to build request: %w", err)
	}
	return e.do(req)
}

func (e *HTTPEndpoint) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *HTTPEndpoint) do(req *http.Request) ([]byte, error) {
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("transport: server returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
