// Package telemetry ships client failure reports to a remote collector.
//
// RemoteSink posts each Entry as JSON on a detached goroutine. Delivery is
// best effort: failures are logged locally and dropped, never retried and
// never returned to the caller. Flush waits for in-flight posts at shutdown.
package telemetry
