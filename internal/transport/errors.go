package transport

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorKind categorizes a transport failure.
type ErrorKind int

const (
	// KindUnknown indicates an unclassified transport failure.
	KindUnknown ErrorKind = iota
	// KindTLS indicates a TLS/certificate verification error.
	KindTLS
	// KindNetwork indicates a connectivity error (refused, reset, unreachable).
	KindNetwork
	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout
	// KindDNS indicates a DNS resolution failure.
	KindDNS
	// KindCanceled indicates the caller cancelled the request.
	KindCanceled
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTLS:
		return "TLS certificate error"
	case KindNetwork:
		return "network error"
	case KindTimeout:
		return "timeout"
	case KindDNS:
		return "DNS resolution error"
	case KindCanceled:
		return "canceled"
	default:
		return "transport error"
	}
}

// TransportError is returned when a request never produced an HTTP response.
// It is distinct from HTTP-level error statuses, which are returned as a
// Response.
type TransportError struct {
	// URL is the request target.
	URL string
	// Kind classifies the failure.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s contacting %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline expiry.
func (e *TransportError) Timeout() bool {
	return e.Kind == KindTimeout
}

// Classify wraps err in a TransportError with the appropriate kind.
// Returns nil when err is nil.
func Classify(err error, target string) *TransportError {
	if err == nil {
		return nil
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	kind := KindUnknown
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case isTimeoutError(err):
		kind = KindTimeout
	case isTLSError(err):
		kind = KindTLS
	case errors.As(err, &dnsErr):
		kind = KindDNS
	case isNetworkError(err.Error()):
		kind = KindNetwork
	}

	return &TransportError{URL: redactURL(target), Kind: kind, Err: redactURLError(err)}
}

// redactURLError replaces a *url.Error with a copy whose URL is redacted.
// The net/http client reports the full request URL, query included.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	redacted.URL = redactURL(urlErr.URL)
	return &redacted
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
		"EOF",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// redactURL drops query strings and userinfo so error messages never carry
// credentials.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
