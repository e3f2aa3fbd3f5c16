package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// EnrichedError is the failure returned to callers of the API client.
// It is built once at the dispatcher boundary and never re-classified.
type EnrichedError struct {
	// Kind is the classified failure category.
	Kind Kind `json:"type"`
	// Status is the HTTP status code (0 when no response was received).
	Status int `json:"status,omitempty"`
	// StatusText is the HTTP reason phrase.
	StatusText string `json:"status_text,omitempty"`
	// Body is the raw response payload.
	Body []byte `json:"-"`
	// HasResponse reports whether the backend answered at all.
	HasResponse bool `json:"has_response"`
	// Duration is the response time of the failed attempt.
	Duration time.Duration `json:"duration"`
	// Timestamp is when the failure was enriched.
	Timestamp time.Time `json:"timestamp"`
	// RequestID identifies the logical call across retries.
	RequestID string `json:"request_id"`
	// URL is the resolved request URL.
	URL string `json:"url"`
	// Method is the HTTP method.
	Method string `json:"method"`
	// UserMessage is the only string a UI may display.
	UserMessage string `json:"user_message"`
	// Retryable indicates whether the retry controller may re-issue the call.
	Retryable bool `json:"retryable"`
	// RetriesRemaining is the retry budget left after this attempt.
	RetriesRemaining int `json:"retries_remaining"`
	// Attempt is the zero-based attempt that produced this error.
	Attempt int `json:"attempt"`
	// RateLimited is set when the client-side limiter rejected the call.
	RateLimited bool `json:"rate_limited,omitempty"`
	// Cause is the raw failure.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *EnrichedError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %s (HTTP %d): %s", e.Method, e.URL, e.Kind, e.Status, e.rawMessage())
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Kind, e.rawMessage())
}

// Unwrap returns the underlying cause of the error.
func (e *EnrichedError) Unwrap() error { return e.Cause }

// RawMessage returns the message of the underlying failure.
func (e *EnrichedError) RawMessage() string { return e.rawMessage() }

func (e *EnrichedError) rawMessage() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("request failed with status code %d", e.Status)
	}
	return e.Kind.String()
}

// Meta describes the request an error belongs to.
type Meta struct {
	RequestID        string
	URL              string
	Method           string
	Attempt          int
	RetriesRemaining int
	Duration         time.Duration
	Timestamp        time.Time
}

// Enrich classifies cause and attaches request metadata. UserMessage is left
// empty for the caller to resolve.
func Enrich(cause error, meta Meta) *EnrichedError {
	ee := &EnrichedError{
		Kind:             Classify(cause),
		RequestID:        meta.RequestID,
		URL:              meta.URL,
		Method:           meta.Method,
		Attempt:          meta.Attempt,
		RetriesRemaining: meta.RetriesRemaining,
		Duration:         meta.Duration,
		Timestamp:        meta.Timestamp,
		Cause:            cause,
	}
	if ee.Timestamp.IsZero() {
		ee.Timestamp = time.Now()
	}
	if se, ok := ResponseOf(cause); ok {
		ee.HasResponse = true
		ee.Status = se.StatusCode
		ee.StatusText = se.StatusText
		ee.Body = se.Body
	}
	ee.Retryable = IsRetryableKind(ee.Kind, ee.Status)
	return ee
}

// ErrRateLimited is the cause of a client-side rate-limit rejection.
var ErrRateLimited = stderrors.New("client rate limit exceeded")

// RateLimited creates the error returned when the client-side limiter denies
// admission. No request was sent, so it is terminal.
func RateLimited(meta Meta) *EnrichedError {
	return &EnrichedError{
		Kind:             KindValidation,
		Status:           http.StatusTooManyRequests,
		StatusText:       http.StatusText(http.StatusTooManyRequests),
		RequestID:        meta.RequestID,
		URL:              meta.URL,
		Method:           meta.Method,
		Attempt:          meta.Attempt,
		RetriesRemaining: meta.RetriesRemaining,
		Timestamp:        meta.Timestamp,
		RateLimited:      true,
		Cause:            ErrRateLimited,
	}
}

// Rejected creates a terminal validation error for a call refused before any
// I/O (invalid request, full bulkhead).
func Rejected(cause error, meta Meta) *EnrichedError {
	return &EnrichedError{
		Kind:      KindValidation,
		RequestID: meta.RequestID,
		URL:       meta.URL,
		Method:    meta.Method,
		Attempt:   meta.Attempt,
		Timestamp: meta.Timestamp,
		Cause:     cause,
	}
}
