// Package errors provides the failure taxonomy of the API client.
// It classifies raw transport and HTTP failures into a fixed set of kinds
// and defines the enriched error returned to callers, carrying request
// metadata, a resolved user message and a retryable flag.
package errors
