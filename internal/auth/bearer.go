package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// bearerExpiry reads the exp claim of a JWT bearer token. The signature is
// not verified: the value only decides when to stop sending the token, the
// server still validates it. Opaque tokens report ok=false.
func bearerExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return normalizeTime(exp.Time), true
}
