// Package resilience provides the admission and retry primitives shared by
// every outbound call of the API client.
//
// This package includes:
//   - WindowLimiter: fixed-size request window rotated lazily on admission
//   - Retry: re-issues a failed operation with exponential backoff
//   - Bulkhead: optional cap on concurrently in-flight calls
//
// A client owns exactly one WindowLimiter and passes the same instance to
// every call, so admission is decided against process-wide counts:
//
//	rl := resilience.NewWindowLimiter(resilience.WindowConfig{Window: time.Minute, MaxRequests: 100})
//
//	resp, err := resilience.Retry(ctx, policy, func(ctx context.Context, attempt int) (*Response, error) {
//	    if !rl.Acquire() {
//	        return nil, ErrRateLimited
//	    }
//	    return send(ctx)
//	})
package resilience
