package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Reply is one scripted response of the fake backend.
type Reply struct {
	Status  int
	Body    any // JSON-encoded unless it is a string or []byte
	Headers map[string]string
	// Delay holds the response back, honoring client cancellation.
	Delay time.Duration
}

// RecordedRequest is a request the backend received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Backend is a fake HTTP API. Each route plays its replies in order and
// repeats the last one. Unscripted routes answer 404.
type Backend struct {
	engine *gin.Engine
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string][]Reply
	hits     map[string]int
	requests []RecordedRequest
}

var _ TestComponent = (*Backend)(nil)

// NewBackend creates a backend. Call Start (or T(t).Setup) before use.
func NewBackend() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		routes: map[string][]Reply{},
		hits:   map[string]int{},
	}
	b.engine = gin.New()
	b.engine.Any("/*path", b.serve)
	return b
}

// StartBackend creates and starts a backend that stops when t ends.
func StartBackend(t testing.TB) *Backend {
	b := NewBackend()
	T(t).Setup(b)
	return b
}

func routeKey(method, path string) string { return method + " " + path }

// Handle scripts the replies of method and path.
func (b *Backend) Handle(method, path string, replies ...Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[routeKey(method, path)] = replies
	return b
}

func (b *Backend) serve(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	key := routeKey(c.Request.Method, c.Request.URL.Path)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	n := b.hits[key]
	b.hits[key] = n + 1
	replies := b.routes[key]
	b.mu.Unlock()

	if len(replies) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no route " + key})
		return
	}
	r := replies[min(n, len(replies)-1)]

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	for k, v := range r.Headers {
		c.Header(k, v)
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	switch body := r.Body.(type) {
	case nil:
		c.Status(status)
	case string:
		c.Data(status, "text/plain; charset=utf-8", []byte(body))
	case []byte:
		c.Data(status, "application/octet-stream", body)
	default:
		c.JSON(status, body)
	}
}

// Hits returns how many requests reached method and path.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[routeKey(method, path)]
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// URL returns the base URL of the running server.
func (b *Backend) URL() string {
	if b.server == nil {
		return ""
	}
	return b.server.URL
}

// Handler exposes the gin engine for serving on a real listener.
func (b *Backend) Handler() http.Handler { return b.engine }

func (b *Backend) Name() string { return "backend-test" }

func (b *Backend) Start(context.Context) error {
	if b.server != nil {
		return fmt.Errorf("component already started")
	}
	b.server = httptest.NewServer(b.engine)
	return nil
}

func (b *Backend) Stop(context.Context) error {
	if b.server != nil {
		b.server.Close()
		b.server = nil
	}
	return nil
}

// Reset forgets scripted routes and recorded requests.
func (b *Backend) Reset(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes = map[string][]Reply{}
	b.hits = map[string]int{}
	b.requests = nil
	return nil
}
