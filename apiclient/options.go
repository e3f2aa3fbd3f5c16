package apiclient

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apiguard/credential"
	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/message"
	"github.com/kbukum/apiguard/observability"
	"github.com/kbukum/apiguard/resilience"
	"github.com/kbukum/apiguard/session"
	"github.com/kbukum/apiguard/telemetry"
)

// Option configures a Client.
type Option func(*Client)

// WithStore sets the credential store. Defaults to an empty MemoryStore.
func WithStore(s credential.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithNavigator sets where authentication failures redirect.
func WithNavigator(n session.Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLogger sets the local logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithClock sets the time source of latency and the default rate limiter.
func WithClock(clock resilience.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithMetrics records request metrics.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer of request spans. Defaults to the global
// provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithSink sets where failure reports are sent. Overrides
// remote_logging_endpoint.
func WithSink(s telemetry.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithLimiter shares a rate limiter between clients.
func WithLimiter(l *resilience.WindowLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBulkhead caps in-flight calls. Overrides max_concurrent.
func WithBulkhead(b *resilience.Bulkhead) Option {
	return func(c *Client) { c.bulkhead = b }
}

// RequestOption configures a single call.
type RequestOption func(*callOptions)

type callOptions struct {
	headers  map[string]string
	query    map[string]string
	timeout  time.Duration
	noAuth   bool
	policy   *resilience.Policy
	messages message.Options
}

// WithHeaders adds headers to the call, overriding client defaults.
func WithHeaders(h map[string]string) RequestOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(h))
		}
		for k, v := range h {
			o.headers[k] = v
		}
	}
}

// WithHeader adds one header to the call.
func WithHeader(key, value string) RequestOption {
	return WithHeaders(map[string]string{key: value})
}

// WithQuery adds query parameters to the call.
func WithQuery(q map[string]string) RequestOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(map[string]string, len(q))
		}
		for k, v := range q {
			o.query[k] = v
		}
	}
}

// WithQueryParam adds one query parameter to the call.
func WithQueryParam(key, value string) RequestOption {
	return WithQuery(map[string]string{key: value})
}

// WithTimeout overrides the per-attempt deadline.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithoutAuth sends the call without the stored bearer token.
func WithoutAuth() RequestOption {
	return func(o *callOptions) { o.noAuth = true }
}

// WithoutRetry makes the first failure terminal.
func WithoutRetry() RequestOption {
	return func(o *callOptions) {
		p := resilience.NoRetry()
		o.policy = &p
	}
}

// WithRetryPolicy overrides the retry budget and backoff. Its RetryIf is
// ignored; retryability always comes from classification.
func WithRetryPolicy(p resilience.Policy) RequestOption {
	return func(o *callOptions) { o.policy = &p }
}

// WithCustomMessages maps raw error messages to user-facing sentences.
func WithCustomMessages(m map[string]string) RequestOption {
	return func(o *callOptions) { o.messages.CustomMessages = m }
}

// WithFallbackMessage replaces the generic unknown-error sentence.
func WithFallbackMessage(msg string) RequestOption {
	return func(o *callOptions) { o.messages.FallbackMessage = msg }
}
