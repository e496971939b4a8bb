package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ResolveServer picks the API base URL. An explicit host wins (with port
// applied when given), then the cached server from the token record.
// A host without scheme gets https://. The result has no trailing slash.
func ResolveServer(host string, port int, cached string) (string, error) {
	host = strings.TrimSpace(host)
	if host != "" {
		return normalizeServerURL(host, port)
	}
	if cached = strings.TrimSpace(cached); cached != "" {
		return normalizeServerURL(cached, 0)
	}
	return "", ErrNoServer
}

func normalizeServerURL(raw string, port int) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server %q: %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("invalid server %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid server %q: missing host", raw)
	}
	if port != 0 {
		if port < 1 || port > 65535 {
			return "", fmt.Errorf("invalid port %d", port)
		}
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
