// Package logging provides the process-wide structured logger for eve.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name so CLI output and proxy logs can be filtered by component:
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//	logging.Info("Auth", "Authenticated to %s", server)
//	logging.Error("Proxy", err, "Upstream request failed")
//
// Security-relevant events (token stored, session evicted, insecure TLS
// enabled) go through Audit, which emits a SECURITY_AUDIT line with an
// "event" attribute. Token values are never passed to the logger.
//
// The proxy server attaches a request-scoped logger with WithContext and
// handlers retrieve it with FromContext.
package logging
