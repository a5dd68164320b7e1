package api

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenExpiry returns the expiry time embedded in a session bearer token.
// The token is parsed without signature verification - the server remains
// the authority on validity; this only lets the client warn about an
// obviously stale session before issuing doomed requests. ok is false for
// opaque (non-JWT) tokens or tokens without an exp claim.
func TokenExpiry(token string) (expiry time.Time, ok bool) {
	claims := jwt.MapClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, found := claims["exp"]
	if !found {
		return time.Time{}, false
	}
	switch v := exp.(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}

// TokenExpired reports whether a session token carries an exp claim that
// has already passed. Opaque tokens report false; the server decides.
func TokenExpired(token string) bool {
	expiry, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return time.Now().After(expiry)
}
