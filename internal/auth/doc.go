// Package auth implements the token and session lifecycle for the
// device-management API.
//
// # Components
//
//   - Credential: a closed set of authentication inputs (UsernamePassword,
//     BasicAuthToken, APIClientCredentials, PreissuedBearer), validated once
//     by ValidateCredential when a session is created.
//   - HTTPAuthenticator: performs exactly one token request per call, using
//     the password grant (HTTP Basic) or the OAuth2 client-credentials grant.
//     It never retries and never touches a store.
//   - FileStore: the single persisted token record used by the CLI. Writes
//     are atomic (temp file + rename); unreadable records count as absent.
//   - MemoryStore: live sessions keyed by id, used by the proxy server.
//   - Manager: the session state machine.
//
// # Session lifecycle
//
// A Session moves through these states:
//
//	Unauthenticated -> Authenticated(valid) -> Authenticated(stale) -> Refreshed | Evicted
//
// Manager.GetToken returns the current token while now < ExpiresAt and
// otherwise re-authenticates with the session's original credential.
// Manager.Do sends a request with that token; a 401 causes one refresh and
// one retry. If the retry is also rejected, or the refresh fails, the session
// is evicted and the caller gets *ReauthenticationRequiredError. Statuses
// other than 401 are returned untouched.
//
// Pre-issued bearer sessions never refresh: an expired token or a 401 evicts
// them immediately.
//
// # Concurrency
//
// Each session has its own refresh semaphore. Concurrent callers that all
// observe a stale token queue on it; the first re-authenticates and publishes
// a new token generation, the rest see the newer generation and reuse it.
// Sessions refresh independently of each other. Tokens are replaced
// wholesale, and a transport failure during refresh publishes nothing, so
// the previous token stays authoritative.
package auth
