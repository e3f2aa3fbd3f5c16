package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/version"
)

// Entry is one remote log record.
type Entry struct {
	Level         string                `json:"level"`
	Message       string                `json:"message"`
	Error         any                   `json:"error,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
	ClientContext version.ClientContext `json:"clientContext"`
}

// Sink accepts entries without blocking the caller.
type Sink interface {
	Emit(e Entry)
}

// NopSink discards every entry.
type NopSink struct{}

func (NopSink) Emit(Entry) {}

const defaultTimeout = 5 * time.Second

// RemoteSink posts entries to an HTTP endpoint.
type RemoteSink struct {
	endpoint string
	client   *http.Client
	log      *logger.Logger
	context  version.ClientContext
	now      func() time.Time
	wg       sync.WaitGroup
}

// Option configures a RemoteSink.
type Option func(*RemoteSink)

// WithHTTPClient sets the client used for posting.
func WithHTTPClient(c *http.Client) Option {
	return func(s *RemoteSink) { s.client = c }
}

// WithLogger sets the local logger that records delivery failures.
func WithLogger(l *logger.Logger) Option {
	return func(s *RemoteSink) { s.log = l }
}

// WithClientContext sets the context stamped on entries that carry none.
func WithClientContext(cc version.ClientContext) Option {
	return func(s *RemoteSink) { s.context = cc }
}

// NewRemoteSink returns a sink posting to endpoint.
func NewRemoteSink(endpoint string, opts ...Option) *RemoteSink {
	s := &RemoteSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		log:      logger.NewNop(),
		context:  version.NewClientContext(""),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("telemetry")
	return s
}

// Emit posts e in the background. It returns immediately.
func (s *RemoteSink) Emit(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if e.ClientContext == (version.ClientContext{}) {
		e.ClientContext = s.context
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.post(e); err != nil {
			s.log.Warn("remote log delivery failed", logger.Fields(
				"endpoint", s.endpoint,
				logger.FieldError, err.Error(),
			))
		}
	}()
}

func (s *RemoteSink) post(e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.ClientContext.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}

// Flush waits for in-flight posts or for ctx to end.
func (s *RemoteSink) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Sink = (*RemoteSink)(nil)
var _ Sink = NopSink{}
