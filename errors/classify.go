package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// StatusError is a failure that carries a backend response.
// Transports return it for any answer the dispatcher does not accept as success.
type StatusError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// StatusText is the reason phrase of the response.
	StatusText string
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response payload.
	Body []byte
}

// NewStatusError creates a StatusError for the given response parts.
func NewStatusError(status int, headers map[string]string, body []byte) *StatusError {
	return &StatusError{
		StatusCode: status,
		StatusText: http.StatusText(status),
		Headers:    headers,
		Body:       body,
	}
}

// Error returns the raw failure message. The message resolver matches custom
// messages against this exact string.
func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// ResponseOf returns the response attached to err, if any.
func ResponseOf(err error) (*StatusError, bool) {
	var se *StatusError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ClassifyStatus maps an HTTP status code to a kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// Classify maps a raw failure to a kind. A failure without a response is
// always KindNetwork, whatever its message. Enriched errors keep the kind
// they were classified with.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ee *EnrichedError
	if stderrors.As(err, &ee) {
		return ee.Kind
	}
	if se, ok := ResponseOf(err); ok {
		return ClassifyStatus(se.StatusCode)
	}
	return KindNetwork
}

// IsRetryableKind reports whether a kind/status pair may be retried:
// requests that got no response and 5xx answers.
func IsRetryableKind(kind Kind, status int) bool {
	return kind == KindNetwork || status >= 500
}

// IsRetryable reports whether err may be retried. Enriched errors answer with
// their own flag so client-side rejections stay terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ee *EnrichedError
	if stderrors.As(err, &ee) {
		return ee.Retryable
	}
	if se, ok := ResponseOf(err); ok {
		return se.StatusCode >= 500
	}
	return true
}
