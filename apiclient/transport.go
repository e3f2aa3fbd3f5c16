package apiclient

import (
	"context"
	"net/http"
	"time"
)

// Transport sends one HTTP request. Implementations return a non-nil error
// only when no response was received.
type Transport interface {
	RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with a net/http client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a transport over a clone of the default
// transport. Deadlines come from the request context, so the client itself
// carries no timeout.
func NewHTTPTransport() *HTTPTransport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = 0
	t.IdleConnTimeout = 90 * time.Second
	return &HTTPTransport{client: &http.Client{Transport: t}}
}

// NewHTTPTransportWithClient wraps an existing client.
func NewHTTPTransportWithClient(c *http.Client) *HTTPTransport {
	return &HTTPTransport{client: c}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	return t.client.Do(req.WithContext(ctx))
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (t *HTTPTransport) Unwrap() *http.Client {
	return t.client
}
