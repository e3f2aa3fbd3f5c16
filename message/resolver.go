package message

import (
	"github.com/kbukum/apiguard/errors"
)

// Canonical user-facing sentences.
const (
	NetworkMessage = "Unable to reach the server. Please check your internet connection and try again."
	UnknownMessage = "An unexpected error occurred. Please try again."
)

var statusMessages = map[int]string{
	400: "The request was invalid. Please check your input and try again.",
	401: "Your session has expired. Please log in again.",
	403: "You do not have permission to perform this action.",
	404: "The requested resource was not found.",
	408: "The request timed out. Please try again.",
	409: "This action conflicts with the current state of the resource.",
	422: "Some of the submitted information is invalid. Please review it and try again.",
	429: "Too many requests. Please wait a moment and try again.",
	500: "The server encountered an error. Please try again later.",
	502: "The server received an invalid response. Please try again later.",
	503: "The service is temporarily unavailable. Please try again later.",
	504: "The server took too long to respond. Please try again later.",
}

// StatusMessage returns the canonical sentence for status.
func StatusMessage(status int) (string, bool) {
	msg, ok := statusMessages[status]
	return msg, ok
}

// Options tune message resolution for one call.
type Options struct {
	// CustomMessages maps raw error messages to replacement sentences.
	CustomMessages map[string]string
	// FallbackMessage replaces the generic unknown-error sentence.
	FallbackMessage string
}

// Input is the part of a classified failure the resolver reads.
type Input struct {
	RawMessage  string
	Kind        errors.Kind
	Status      int
	HasResponse bool
	Body        []byte
}

// FromError builds an Input from an enriched error.
func FromError(e *errors.EnrichedError) Input {
	return Input{
		RawMessage:  e.RawMessage(),
		Kind:        e.Kind,
		Status:      e.Status,
		HasResponse: e.HasResponse,
		Body:        e.Body,
	}
}

// Resolve returns the user-facing sentence for in.
func Resolve(in Input, opts Options) string {
	if msg, ok := opts.CustomMessages[in.RawMessage]; ok && in.RawMessage != "" {
		return msg
	}
	if in.HasResponse {
		if shape, ok := BodyMessage(in.Body); ok {
			if msg := Join(shape); msg != "" {
				return msg
			}
		}
	}
	if msg, ok := StatusMessage(in.Status); ok {
		return msg
	}
	if !in.HasResponse && in.Kind == errors.KindNetwork {
		return NetworkMessage
	}
	if opts.FallbackMessage != "" {
		return opts.FallbackMessage
	}
	return UnknownMessage
}

// ResolveError resolves the message for an enriched error.
func ResolveError(e *errors.EnrichedError, opts Options) string {
	return Resolve(FromError(e), opts)
}
