package apiclient

import (
	"context"
	"net/http"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
	// RequestID identifies the call in logs.
	RequestID string
}

// GetJSON performs a GET request and decodes the JSON response into type T.
func GetJSON[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodGet, path, nil, opts...)
}

// PostJSON performs a POST request with a JSON body and decodes the response into type T.
func PostJSON[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPost, path, body, opts...)
}

// PutJSON performs a PUT request with a JSON body and decodes the response into type T.
func PutJSON[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPut, path, body, opts...)
}

// PatchJSON performs a PATCH request with a JSON body and decodes the response into type T.
func PatchJSON[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPatch, path, body, opts...)
}

// DeleteJSON performs a DELETE request and decodes the JSON response into type T.
func DeleteJSON[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodDelete, path, nil, opts...)
}

// doTyped executes a request and decodes the JSON success body. Failures are
// returned as the dispatcher produced them.
func doTyped[T any](c *Client, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body}, opts...)
	if err != nil {
		return nil, err
	}

	var data T
	if err := resp.Decode(&data); err != nil {
		return nil, err
	}
	return &TypedResponse[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
		RequestID:  resp.RequestID,
	}, nil
}
