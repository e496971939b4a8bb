// Package server implements the local proxy behind `eve serve`.
//
// The proxy exposes a small JSON API for a browser UI. A client first calls
// POST /api/authenticate with a server URL and a credential; the response
// carries a session id that subsequent requests send in the X-Session-ID
// header. Every other route resolves that session in the auth.Manager and
// performs the remote call through it, so token refresh and the single
// retry on 401 happen transparently.
//
// Routes:
//
//	GET    /health
//	GET    /metrics
//	POST   /api/authenticate
//	POST   /api/logout
//	GET    /api/token/status
//	ANY    /api/jamf/{path...}
//	GET    /api/resources
//	GET    /api/resources/{kind}
//	POST   /api/resources/{kind}
//	GET    /api/resources/{kind}/{id}
//	PUT    /api/resources/{kind}/{id}
//	DELETE /api/resources/{kind}/{id}
//	GET    /api/computers/search/{term}
//	GET    /api/computers/udid/{udid}
//	POST   /api/resources/api-clients/{id}/client-credentials
//
// Errors are returned as {"error": "..."} with the status chosen by
// StatusFor. /api/authenticate is rate limited per client address.
package server
