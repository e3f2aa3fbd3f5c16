package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apiguard/config"
	"github.com/kbukum/apiguard/credential"
	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/mask"
	"github.com/kbukum/apiguard/observability"
	"github.com/kbukum/apiguard/resilience"
	"github.com/kbukum/apiguard/session"
	"github.com/kbukum/apiguard/telemetry"
	"github.com/kbukum/apiguard/version"
)

// Client dispatches API calls. One Client holds the rate-limit window shared
// by every call made through it; it is safe for concurrent use.
type Client struct {
	cfg       config.ClientConfig
	transport Transport
	store     credential.Store
	navigator session.Navigator
	hook      *session.Hook
	limiter   *resilience.WindowLimiter
	bulkhead  *resilience.Bulkhead
	policy    resilience.Policy
	masker    *mask.Masker
	log       *logger.Logger
	clock     resilience.Clock
	metrics   *observability.ClientMetrics
	tracer    trace.Tracer
	sink      telemetry.Sink
	userAgent string
}

// New creates a client. cfg is defaulted and validated first.
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("apiclient: %w", err)
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}
	if c.store == nil {
		c.store = credential.NewMemoryStore()
	}
	if c.clock == nil {
		c.clock = resilience.SystemClock
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer(observability.TracerName)
	}

	c.userAgent = cfg.UserAgent
	if c.userAgent == "" {
		c.userAgent = version.UserAgent("")
	}

	switch {
	case !cfg.LoggingEnabled:
		c.log = logger.NewNop()
	case c.log == nil:
		c.log = logger.GetGlobalLogger()
	}
	c.log = c.log.WithComponent("apiclient")

	if c.sink == nil {
		c.sink = telemetry.NopSink{}
		if cfg.LoggingEnabled && cfg.RemoteLoggingEndpoint != "" {
			c.sink = telemetry.NewRemoteSink(cfg.RemoteLoggingEndpoint,
				telemetry.WithLogger(c.log),
				telemetry.WithClientContext(version.NewClientContext(c.userAgent)),
			)
		}
	}

	if c.limiter == nil {
		c.limiter = resilience.NewWindowLimiter(resilience.WindowConfig{
			Name:        "apiclient",
			Window:      cfg.RateLimit.Window,
			MaxRequests: cfg.RateLimit.MaxRequests,
			Clock:       c.clock,
		})
	}
	if c.bulkhead == nil && cfg.MaxConcurrent > 0 {
		c.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "apiclient",
			MaxConcurrent: cfg.MaxConcurrent,
		})
	}

	c.policy = resilience.Policy{
		MaxRetries:        cfg.MaxRetries,
		Delay:             cfg.RetryDelay,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
	c.masker = mask.New(cfg.MaskFields)
	c.hook = session.NewHook(c.store, c.navigator, c.log)

	return c, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, opts...)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, opts...)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, opts...)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, opts...)
}

// Delete performs a DELETE request. body may be nil.
func (c *Client) Delete(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Body: body}, opts...)
}

// Store returns the credential store.
func (c *Client) Store() credential.Store { return c.store }

// Limiter returns the shared rate limiter.
func (c *Client) Limiter() *resilience.WindowLimiter { return c.limiter }

// Policy returns the default retry policy.
func (c *Client) Policy() resilience.Policy { return c.policy }

// Flush waits for pending remote log deliveries.
func (c *Client) Flush(ctx context.Context) error {
	if f, ok := c.sink.(interface{ Flush(context.Context) error }); ok {
		return f.Flush(ctx)
	}
	return nil
}
