// Package resources wraps device-management REST endpoints in small typed
// helpers.
//
// Every helper goes through a Doer, normally a session bound to an
// auth.Manager, so token refresh and retry stay in one place. Payloads are
// returned as raw JSON or XML; only list results are decoded into Summary
// rows for table output.
//
// Kinds exposes the wrappers under stable names ("policies", "scripts", ...)
// for the CLI and the proxy's /api/resources routes.
package resources
