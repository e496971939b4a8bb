package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// CredentialKind names the authentication method behind a Credential.
type CredentialKind string

const (
	KindUsernamePassword CredentialKind = "username_password"
	KindBasicAuth        CredentialKind = "basic"
	KindClientCredential CredentialKind = "oauth2"
	KindBearer           CredentialKind = "bearer"
)

// Credential is the input to session creation. The concrete types in this
// package are the only implementations.
type Credential interface {
	// Kind reports the authentication method.
	Kind() CredentialKind
	// Refreshable reports whether the credential can be replayed to obtain
	// a new token.
	Refreshable() bool

	credential()
}

// UsernamePassword authenticates with the password grant.
type UsernamePassword struct {
	Username string
	Password string
}

// BasicAuthToken is an already encoded base64("user:pass") string.
type BasicAuthToken struct {
	Encoded string
}

// APIClientCredentials authenticates with the OAuth2 client-credentials grant.
type APIClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// PreissuedBearer is a bearer token obtained elsewhere. It never reaches the
// Authenticator and is never refreshed.
type PreissuedBearer struct {
	Token string
}

func (UsernamePassword) Kind() CredentialKind     { return KindUsernamePassword }
func (BasicAuthToken) Kind() CredentialKind       { return KindBasicAuth }
func (APIClientCredentials) Kind() CredentialKind { return KindClientCredential }
func (PreissuedBearer) Kind() CredentialKind      { return KindBearer }

func (UsernamePassword) Refreshable() bool     { return true }
func (BasicAuthToken) Refreshable() bool       { return true }
func (APIClientCredentials) Refreshable() bool { return true }
func (PreissuedBearer) Refreshable() bool      { return false }

func (UsernamePassword) credential()     {}
func (BasicAuthToken) credential()       {}
func (APIClientCredentials) credential() {}
func (PreissuedBearer) credential()      {}

// String implementations keep secrets out of logs and error messages.

func (c UsernamePassword) String() string {
	return fmt.Sprintf("UsernamePassword{Username: %q, Password: [REDACTED]}", c.Username)
}

func (BasicAuthToken) String() string { return "BasicAuthToken{[REDACTED]}" }

func (c APIClientCredentials) String() string {
	return fmt.Sprintf("APIClientCredentials{ClientID: %q, ClientSecret: [REDACTED]}", c.ClientID)
}

func (PreissuedBearer) String() string { return "PreissuedBearer{[REDACTED]}" }

// ValidateCredential checks every field a credential variant needs.
// It is called once when a session is created.
func ValidateCredential(c Credential) error {
	switch cred := c.(type) {
	case nil:
		return fmt.Errorf("%w: no credential supplied", ErrInvalidCredential)
	case UsernamePassword:
		if cred.Username == "" || cred.Password == "" {
			return fmt.Errorf("%w: username and password are required", ErrInvalidCredential)
		}
		if strings.Contains(cred.Username, ":") {
			return fmt.Errorf("%w: username must not contain ':'", ErrInvalidCredential)
		}
	case BasicAuthToken:
		if cred.Encoded == "" {
			return fmt.Errorf("%w: basic auth string is required", ErrInvalidCredential)
		}
		decoded, err := base64.StdEncoding.DecodeString(cred.Encoded)
		if err != nil {
			return fmt.Errorf("%w: basic auth string is not valid base64", ErrInvalidCredential)
		}
		user, pass, ok := strings.Cut(string(decoded), ":")
		if !ok || user == "" || pass == "" {
			return fmt.Errorf("%w: basic auth string must encode user:pass", ErrInvalidCredential)
		}
	case APIClientCredentials:
		if cred.ClientID == "" || cred.ClientSecret == "" {
			return fmt.Errorf("%w: client id and client secret are required", ErrInvalidCredential)
		}
	case PreissuedBearer:
		if strings.TrimSpace(cred.Token) == "" {
			return fmt.Errorf("%w: bearer token is required", ErrInvalidCredential)
		}
	default:
		return fmt.Errorf("%w: unsupported credential type %T", ErrInvalidCredential, c)
	}
	return nil
}

// basicHeader returns the value for an "Authorization: Basic" header.
func basicHeader(c Credential) (string, error) {
	switch cred := c.(type) {
	case UsernamePassword:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(cred.Username+":"+cred.Password)), nil
	case BasicAuthToken:
		return "Basic " + cred.Encoded, nil
	default:
		return "", fmt.Errorf("%w: %s credentials do not use basic auth", ErrInvalidCredential, c.Kind())
	}
}
