package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"eve/pkg/logging"
)

const (
	// DefaultTimeout bounds every request that does not carry an earlier deadline.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is buffered.
	maxResponseBytes = 32 << 20
)

// Response is a fully-read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Config configures an Executor.
type Config struct {
	// Timeout applies to each Send call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Insecure disables TLS certificate verification. It exists for
	// self-signed test servers only and must be enabled explicitly.
	Insecure bool

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// Executor sends HTTP requests and returns buffered responses.
// It is safe for concurrent use.
type Executor struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates an Executor from cfg.
func New(cfg Config) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		// #nosec G402 -- opt-in via --insecure for self-signed test servers
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		logging.Audit("tls_verification_disabled",
			"TLS certificate verification disabled by configuration")
	}

	return &Executor{
		client:    &http.Client{Transport: tr},
		timeout:   timeout,
		userAgent: cfg.UserAgent,
	}
}

// HTTPClient exposes the underlying client so other HTTP libraries (oauth2)
// share the same TLS settings.
func (e *Executor) HTTPClient() *http.Client {
	return e.client
}

// Timeout returns the per-request timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Send issues a request and reads the whole response body. Any HTTP status
// is a successful Send; only failures to obtain a response are errors, and
// those are always *TransportError.
func (e *Executor) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if e.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, Classify(err, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, Classify(err, url)
	}

	logging.Debug("Transport", "%s %s -> %d (%d bytes)", method, redactURL(url), resp.StatusCode, len(data))

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}
