package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchAccessTokenFormFields(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"client_id":  r.PostForm.Get("client_id"),
			"username":   r.PostForm.Get("username"),
			"password":   r.PostForm.Get("password"),
			"grant_type": r.PostForm.Get("grant_type"),
		}
		_, _ = w.Write([]byte(`{"access_token":"identity-token"}`))
	}))
	defer server.Close()

	token, err := FetchAccessToken(context.Background(), server.Client(), server.URL, "space1", "ops", "secret")
	require.NoError(t, err)
	require.Equal(t, "identity-token", token)
	require.Equal(t, map[string]string{
		"client_id":  "space1.ziqni.app",
		"username":   "ops",
		"password":   "secret",
		"grant_type": "password",
	}, gotForm)
}

func TestFetchAccessTokenDefaultsClientID(t *testing.T) {
	var gotClientID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotClientID = r.PostForm.Get("client_id")
		_, _ = w.Write([]byte(`{"access_token":"identity-token"}`))
	}))
	defer server.Close()

	_, err := FetchAccessToken(context.Background(), server.Client(), server.URL, "", "ops", "secret")
	require.NoError(t, err)
	require.Equal(t, "www.ziqni.app", gotClientID)
}

func TestFetchAccessTokenRejectsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := FetchAccessToken(context.Background(), server.Client(), server.URL, "space1", "ops", "bad")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 401")
}

func TestFetchAccessTokenRejectsMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := FetchAccessToken(context.Background(), server.Client(), server.URL, "", "ops", "secret")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing access token")
}
