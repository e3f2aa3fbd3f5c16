package apiclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/apiguard/credential"
	apierrors "github.com/kbukum/apiguard/errors"
	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/message"
	"github.com/kbukum/apiguard/observability"
	"github.com/kbukum/apiguard/resilience"
	"github.com/kbukum/apiguard/telemetry"
)

// Do executes req through the full pipeline. On failure the error is an
// *errors.EnrichedError, except when ctx ends while waiting between
// attempts, in which case ctx.Err() is returned.
func (c *Client) Do(ctx context.Context, req Request, opts ...RequestOption) (*Response, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	d, err := c.describe(req, &co)
	if err != nil {
		return nil, c.reject(d, err, co)
	}

	if c.bulkhead != nil {
		release, err := c.bulkhead.Acquire(ctx)
		if err != nil {
			return nil, c.reject(d, err, co)
		}
		defer release()
	}

	policy := c.policy
	if co.policy != nil {
		policy = *co.policy
	}
	policy.RetryIf = func(err error) bool {
		ee, ok := apierrors.AsEnriched(err)
		return ok && ee.Retryable && ctx.Err() == nil
	}
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.metrics.RecordRetry(ctx, d.Method)
		c.log.Info("retrying request", logger.Fields(
			logger.FieldRequestID, d.ID,
			logger.FieldMethod, d.Method,
			logger.FieldURL, d.URL,
			logger.FieldAttempt, attempt+1,
			"delay_ms", delay.Milliseconds(),
		))
	}

	return resilience.Retry(ctx, policy, func(ctx context.Context, attempt int) (*Response, error) {
		d.Attempt = attempt
		return c.attempt(ctx, d, &co, policy)
	})
}

// describe builds the descriptor shared by every attempt of one call.
func (c *Client) describe(req Request, co *callOptions) (*RequestDescriptor, error) {
	d := &RequestDescriptor{
		ID:      newRequestID(),
		Method:  req.Method,
		Path:    req.Path,
		RawBody: req.Body,
		Start:   c.clock.Now(),
	}

	query := make(map[string]string, len(req.Query)+len(co.query))
	for k, v := range req.Query {
		query[k] = v
	}
	for k, v := range co.query {
		query[k] = v
	}
	u, err := resolveURL(c.cfg.BaseURL, req.Path, query)
	if err != nil {
		d.URL = req.Path
		return d, err
	}
	d.URL = u

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return d, fmt.Errorf("encode body: %w", err)
	}
	d.Body, d.ContentType = body, contentType

	d.Headers = map[string]string{
		"Accept":       "application/json",
		"User-Agent":   c.userAgent,
		"X-Request-Id": d.ID,
	}
	for k, v := range c.cfg.Headers {
		d.Headers[k] = v
	}
	for k, v := range req.Headers {
		d.Headers[k] = v
	}
	for k, v := range co.headers {
		d.Headers[k] = v
	}
	if d.Body != nil && d.ContentType != "" && !hasHeader(d.Headers, "Content-Type") {
		d.Headers["Content-Type"] = d.ContentType
	}
	return d, nil
}

// attempt runs one pass of the pipeline.
func (c *Client) attempt(ctx context.Context, d *RequestDescriptor, co *callOptions, policy resilience.Policy) (*Response, error) {
	d.Start = c.clock.Now()
	meta := apierrors.Meta{
		RequestID:        d.ID,
		URL:              d.URL,
		Method:           d.Method,
		Attempt:          d.Attempt,
		RetriesRemaining: policy.Remaining(d.Attempt),
		Timestamp:        d.Start,
	}

	headers := c.authenticate(ctx, d, co)

	if !c.limiter.Acquire() {
		return nil, c.rateLimited(ctx, d, meta, co)
	}

	ctx, span := observability.StartRequestSpan(ctx, c.tracer, d.Method, d.URL, d.ID, d.Attempt)
	done := c.metrics.Start(ctx)
	resp, err := c.send(ctx, d, headers, co)
	done()
	meta.Duration = c.clock.Now().Sub(d.Start)

	if err == nil {
		resp.Duration = meta.Duration
		observability.EndRequestSpan(span, resp.StatusCode, "", nil)
		c.metrics.RecordAttempt(ctx, d.Method, resp.StatusCode, "", meta.Duration)
		c.logSuccess(d, headers, resp)
		return resp, nil
	}

	ee := c.classify(err, meta, co)
	span.SetAttributes(attribute.Bool(observability.AttrRetryable, ee.Retryable))
	observability.EndRequestSpan(span, ee.Status, ee.Kind.String(), ee)
	c.metrics.RecordAttempt(ctx, d.Method, ee.Status, ee.Kind.String(), meta.Duration)
	c.logFailure(d, headers, ee)

	if ee.Kind == apierrors.KindAuthentication {
		c.hook.OnAuthFailure(logger.ContextWithRequestID(ctx, d.ID))
	}
	return nil, ee
}

// authenticate returns the headers of this attempt with the stored bearer
// token attached. A store failure is logged and the call goes out without
// a token.
func (c *Client) authenticate(ctx context.Context, d *RequestDescriptor, co *callOptions) map[string]string {
	headers := make(map[string]string, len(d.Headers)+1)
	for k, v := range d.Headers {
		headers[k] = v
	}
	if co.noAuth || hasHeader(headers, "Authorization") {
		return headers
	}

	token, err := c.store.GetToken(ctx)
	if err != nil {
		c.log.Warn("failed to read credentials", logger.Fields(
			logger.FieldRequestID, d.ID,
			logger.FieldError, err.Error(),
		))
		return headers
	}
	if token == "" {
		return headers
	}
	if credential.Expired(token, c.clock.Now()) {
		c.log.Debug("stored token is past its exp claim", logger.Fields(logger.FieldRequestID, d.ID))
	}
	headers["Authorization"] = "Bearer " + token
	return headers
}

// send performs the transport call under the per-attempt deadline. Non-2xx
// responses come back as *errors.StatusError.
func (c *Client) send(ctx context.Context, d *RequestDescriptor, headers map[string]string, co *callOptions) (*Response, error) {
	timeout := c.cfg.Timeout
	if co.timeout > 0 {
		timeout = co.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := d.httpRequest(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	observability.InjectHeaders(ctx, req.Header)

	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		RequestID:  d.ID,
		Attempt:    d.Attempt,
	}
	if !result.IsSuccess() {
		return nil, apierrors.NewStatusError(resp.StatusCode, result.Headers, body)
	}
	return result, nil
}

// classify turns a failed attempt into an enriched error with its user
// message resolved.
func (c *Client) classify(err error, meta apierrors.Meta, co *callOptions) *apierrors.EnrichedError {
	ee := apierrors.Enrich(err, meta)
	ee.UserMessage = message.ResolveError(ee, co.messages)
	return ee
}

func (c *Client) rateLimited(ctx context.Context, d *RequestDescriptor, meta apierrors.Meta, co *callOptions) error {
	ee := apierrors.RateLimited(meta)
	ee.UserMessage = message.ResolveError(ee, co.messages)
	c.metrics.RecordRateLimited(ctx, d.Method)
	c.log.Warn("request refused by client rate limiter", logger.Fields(
		logger.FieldRequestID, d.ID,
		logger.FieldMethod, d.Method,
		logger.FieldURL, d.URL,
		"reset_at", c.limiter.ResetAt(),
	))
	return ee
}

// reject fails a call refused before its first attempt.
func (c *Client) reject(d *RequestDescriptor, err error, co callOptions) error {
	ee := apierrors.Rejected(err, apierrors.Meta{
		RequestID: d.ID,
		URL:       d.URL,
		Method:    d.Method,
		Timestamp: c.clock.Now(),
	})
	ee.UserMessage = message.ResolveError(ee, co.messages)
	c.log.Warn("request rejected", logger.Fields(
		logger.FieldRequestID, d.ID,
		logger.FieldMethod, d.Method,
		logger.FieldURL, d.URL,
		logger.FieldError, err.Error(),
	))
	return ee
}

func (c *Client) logSuccess(d *RequestDescriptor, headers map[string]string, resp *Response) {
	if !c.log.Enabled(zerolog.DebugLevel) {
		return
	}
	c.log.Debug("request succeeded", logger.Fields(
		logger.FieldRequestID, d.ID,
		logger.FieldMethod, d.Method,
		logger.FieldURL, d.URL,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldAttempt, d.Attempt,
		logger.FieldDuration, resp.Duration.Milliseconds(),
		logger.FieldHeaders, c.masker.Headers(headers),
		logger.FieldRequestBody, c.masker.Value(d.RawBody),
		logger.FieldBody, c.masker.JSON(resp.Body),
	))
}

// logFailure writes the masked enriched error locally and hands it to the
// remote sink.
func (c *Client) logFailure(d *RequestDescriptor, headers map[string]string, ee *apierrors.EnrichedError) {
	payload := c.errorPayload(ee)
	c.log.Error("request failed", logger.Fields(
		logger.FieldRequestID, ee.RequestID,
		logger.FieldMethod, ee.Method,
		logger.FieldURL, ee.URL,
		logger.FieldStatus, ee.Status,
		logger.FieldKind, ee.Kind.String(),
		logger.FieldAttempt, ee.Attempt,
		logger.FieldRetryable, ee.Retryable,
		logger.FieldRemaining, ee.RetriesRemaining,
		logger.FieldDuration, ee.Duration.Milliseconds(),
		logger.FieldError, ee.RawMessage(),
		"user_message", ee.UserMessage,
		logger.FieldHeaders, c.masker.Headers(headers),
		logger.FieldRequestBody, c.masker.Value(d.RawBody),
		logger.FieldBody, payload["body"],
	))
	c.sink.Emit(telemetry.Entry{
		Level:     "error",
		Message:   "API request failed",
		Error:     payload,
		Timestamp: ee.Timestamp,
	})
}

// errorPayload is the masked, serializable view of ee.
func (c *Client) errorPayload(ee *apierrors.EnrichedError) map[string]any {
	return map[string]any{
		"type":             ee.Kind.String(),
		"status":           ee.Status,
		"statusText":       ee.StatusText,
		"message":          ee.RawMessage(),
		"userMessage":      ee.UserMessage,
		"requestId":        ee.RequestID,
		"url":              ee.URL,
		"method":           ee.Method,
		"attempt":          ee.Attempt,
		"retryable":        ee.Retryable,
		"retriesRemaining": ee.RetriesRemaining,
		"durationMs":       ee.Duration.Milliseconds(),
		"body":             c.masker.JSON(ee.Body),
	}
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
