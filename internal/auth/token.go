package auth

import (
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the wire format for token expiry: UTC, second
// precision, Z suffix.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Token is an issued bearer token. Values are immutable; a refresh produces
// a new Token.
type Token struct {
	AccessToken string
	IssuedAt    time.Time
	// ExpiresAt is zero only for pre-issued bearer tokens whose lifetime is
	// unknown.
	ExpiresAt time.Time
	Server    string
}

// NewToken builds a Token with normalized timestamps. It rejects tokens
// that expire at or before their issue time.
func NewToken(accessToken, server string, issuedAt, expiresAt time.Time) (Token, error) {
	if accessToken == "" {
		return Token{}, errors.New("access token is empty")
	}
	issuedAt = normalizeTime(issuedAt)
	expiresAt = normalizeTime(expiresAt)
	if !expiresAt.After(issuedAt) {
		return Token{}, fmt.Errorf("token expiry %s is not after issue time %s",
			expiresAt.Format(TimestampLayout), issuedAt.Format(TimestampLayout))
	}
	return Token{
		AccessToken: accessToken,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
		Server:      server,
	}, nil
}

// Valid reports whether the token can be used at now.
func (t Token) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(t.ExpiresAt)
}

// ExpiresIn returns the remaining lifetime at now, or zero once expired.
func (t Token) ExpiresIn(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() || !now.Before(t.ExpiresAt) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// String never includes the access token.
func (t Token) String() string {
	exp := "unknown"
	if !t.ExpiresAt.IsZero() {
		exp = t.ExpiresAt.Format(TimestampLayout)
	}
	return fmt.Sprintf("Token{server=%s issued=%s expires=%s}", t.Server, t.IssuedAt.Format(TimestampLayout), exp)
}

// GoString keeps %#v from printing the access token.
func (t Token) GoString() string {
	return t.String()
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}

// parseTimestamp accepts RFC 3339 timestamps with or without fractional
// seconds or an offset, plus the offset-less form some servers emit, and
// normalizes to UTC second precision.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
