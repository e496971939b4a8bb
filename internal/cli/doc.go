// Package cli provides the shared runtime behind eve's commands.
//
// A Runtime is built once per invocation from the global flags. It loads
// config.yaml, applies flag overrides, initialises logging and wires the
// transport, authenticator, persisted token store and session manager.
// Commands then ask it for a session:
//
//   - Login always authenticates and persists the new token
//   - Session reuses the persisted token, renewing it when a credential was
//     supplied and the token has expired
//
// Errors from the session layer are converted by Classify into
// AuthRequiredError, AuthExpiredError, AuthFailedError and ConnectionError,
// which carry actionable messages and map to distinct exit codes.
//
// Credentials come from flags (RegisterCredentialFlags) with environment
// fallbacks for secrets; a missing password is prompted for on a terminal.
package cli
