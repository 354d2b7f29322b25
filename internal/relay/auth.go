package relay

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthContext carries the credentials extracted from one inbound request. It
// lives for the request only and is never persisted.
type AuthContext struct {
	RawToken string
	APIKey   string
	Expiry   time.Time
}

// admitRequest extracts the bearer token and API key headers and inspects the
// token's expiry. The token is decoded, never cryptographically verified; the
// upstream platform is the authority that rejects forged tokens.
func admitRequest(r *http.Request, now time.Time) (AuthContext, *AuthError) {
	rawToken := strings.TrimSpace(r.Header.Get("Authorization"))
	apiKey := strings.TrimSpace(r.Header.Get("x-api-key"))
	if rawToken == "" || apiKey == "" {
		return AuthContext{}, &AuthError{Message: "Missing token or API key"}
	}

	// Tolerate an optional scheme prefix; upstream calls re-attach it.
	if after, ok := strings.CutPrefix(rawToken, "Bearer "); ok {
		rawToken = strings.TrimSpace(after)
	}

	token, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return AuthContext{}, &AuthError{Message: "Invalid token format"}
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return AuthContext{}, &AuthError{Message: "Invalid token format"}
	}
	if expiry.Time.Before(now) {
		return AuthContext{}, &AuthError{Message: "Unauthorized: Invalid or expired token"}
	}

	return AuthContext{
		RawToken: rawToken,
		APIKey:   apiKey,
		Expiry:   expiry.Time,
	}, nil
}
