package relay

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAdmitRequestMissingHeaders(t *testing.T) {
	now := time.Now()

	r := httptest.NewRequest("GET", "/check-competitions", nil)
	_, authErr := admitRequest(r, now)
	require.NotNil(t, authErr)
	require.Equal(t, "Missing token or API key", authErr.Message)

	r = httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}))
	_, authErr = admitRequest(r, now)
	require.NotNil(t, authErr)
	require.Equal(t, "Missing token or API key", authErr.Message)

	r = httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("x-api-key", "key")
	_, authErr = admitRequest(r, now)
	require.NotNil(t, authErr)
	require.Equal(t, "Missing token or API key", authErr.Message)
}

func TestAdmitRequestRejectsMalformedToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", "not-a-jwt")
	r.Header.Set("x-api-key", "key")

	_, authErr := admitRequest(r, time.Now())
	require.NotNil(t, authErr)
	require.Equal(t, "Invalid token format", authErr.Message)
}

func TestAdmitRequestRejectsTokenWithoutExpiry(t *testing.T) {
	r := httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", signedToken(t, jwt.MapClaims{"sub": "member1"}))
	r.Header.Set("x-api-key", "key")

	_, authErr := admitRequest(r, time.Now())
	require.NotNil(t, authErr)
	require.Equal(t, "Invalid token format", authErr.Message)
}

func TestAdmitRequestRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	r := httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}))
	r.Header.Set("x-api-key", "key")

	_, authErr := admitRequest(r, now)
	require.NotNil(t, authErr)
	require.Equal(t, "Unauthorized: Invalid or expired token", authErr.Message)
}

func TestAdmitRequestAcceptsFreshToken(t *testing.T) {
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	r := httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", token)
	r.Header.Set("x-api-key", "api-key")

	auth, authErr := admitRequest(r, now)
	require.Nil(t, authErr)
	require.Equal(t, token, auth.RawToken)
	require.Equal(t, "api-key", auth.APIKey)
	require.WithinDuration(t, now.Add(time.Hour), auth.Expiry, 2*time.Second)
}

func TestAdmitRequestStripsBearerPrefix(t *testing.T) {
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	r := httptest.NewRequest("GET", "/check-competitions", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("x-api-key", "api-key")

	auth, authErr := admitRequest(r, now)
	require.Nil(t, authErr)
	require.Equal(t, token, auth.RawToken)
}
