package errors

import (
	stderrors "errors"
)

// ErrorResponse is the UI-safe view of an EnrichedError. Headers, bodies and
// raw causes never appear in it.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details a UI may display.
type ErrorBody struct {
	Type      Kind   `json:"type"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitempty"`
}

// ToResponse converts an EnrichedError to its UI-safe form.
func (e *EnrichedError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Type:      e.Kind,
			Message:   e.UserMessage,
			Retryable: e.Retryable,
			RequestID: e.RequestID,
		},
	}
}

// AsEnriched converts an error to an EnrichedError if possible.
func AsEnriched(err error) (*EnrichedError, bool) {
	var ee *EnrichedError
	if stderrors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && Classify(err) == kind
}

// IsNetwork checks if an error is a network failure.
func IsNetwork(err error) bool { return IsKind(err, KindNetwork) }

// IsAuthentication checks if an error is an authentication failure.
func IsAuthentication(err error) bool { return IsKind(err, KindAuthentication) }

// IsAuthorization checks if an error is an authorization failure.
func IsAuthorization(err error) bool { return IsKind(err, KindAuthorization) }

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsServer checks if an error is a server failure.
func IsServer(err error) bool { return IsKind(err, KindServer) }

// IsRateLimited checks if an error is a client-side rate-limit rejection.
func IsRateLimited(err error) bool {
	ee, ok := AsEnriched(err)
	return ok && ee.RateLimited
}
