package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultHTTPTimeout bounds a single collector round trip.
const DefaultHTTPTimeout = 30 * time.Second

// NetHTTPAdapter is the standard Transport implementation using net/http package.
// Outgoing requests are instrumented with otelhttp.
type NetHTTPAdapter struct {
	client *http.Client
}

// Ensure NetHTTPAdapter implements Transport interface
var _ Transport = (*NetHTTPAdapter)(nil)

// NewNetHTTPAdapter creates a new NetHTTPAdapter with the given timeout.
// A non-positive timeout falls back to DefaultHTTPTimeout.
func NewNetHTTPAdapter(timeout time.Duration) *NetHTTPAdapter {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return NewNetHTTPAdapterWithClient(&http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewNetHTTPAdapterWithClient wraps an existing http.Client, e.g. one backed by a test recorder.
func NewNetHTTPAdapterWithClient(client *http.Client) *NetHTTPAdapter {
	return &NetHTTPAdapter{client: client}
}

// Post sends body to url with the given headers.
func (h *NetHTTPAdapter) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &HTTPResponse{
		Status: resp.StatusCode,
		Body:   data,
	}, nil
}
