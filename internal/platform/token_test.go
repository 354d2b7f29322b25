package platform

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingDoer struct {
	calls int
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, http.ErrHandlerTimeout
}

func TestIssueRejectsEmptyMemberWithoutNetworkCall(t *testing.T) {
	doer := &countingDoer{}
	issuer := NewTokenIssuer("https://api.example.com", doer, discardLogger())

	result := issuer.Issue(context.Background(), "", "api-key")
	require.Equal(t, http.StatusBadRequest, result.Status)
	require.Equal(t, `Invalid or missing "memberRefId". It must be a string.`, result.Err)
	require.Zero(t, doer.calls)
}

func TestIssueRejectsEmptyAPIKeyWithoutNetworkCall(t *testing.T) {
	doer := &countingDoer{}
	issuer := NewTokenIssuer("https://api.example.com", doer, discardLogger())

	result := issuer.Issue(context.Background(), "member1", "  ")
	require.Equal(t, http.StatusBadRequest, result.Status)
	require.Equal(t, `Invalid or missing "apiKey". It must be a string.`, result.Err)
	require.Zero(t, doer.calls)
}

func TestIssueReturnsTokenFromNestedField(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/member-token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"data":{"jwtToken":"issued-session-token"}}`))
	}))
	defer server.Close()

	issuer := NewTokenIssuer(server.URL, server.Client(), discardLogger())
	result := issuer.Issue(context.Background(), "member1", "api-key")

	require.Equal(t, http.StatusOK, result.Status)
	require.Equal(t, "issued-session-token", result.Token)
	require.Empty(t, result.Err)

	require.Equal(t, "member1", gotPayload["member"])
	require.Equal(t, "api-key", gotPayload["apiKey"])
	require.Equal(t, true, gotPayload["isReferenceId"])
	require.Equal(t, float64(1800), gotPayload["expires"])
	require.Equal(t, "ziqni-gapi", gotPayload["resource"])
}

func TestIssueCollapsesUpstreamFailuresToGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	issuer := NewTokenIssuer(server.URL, server.Client(), discardLogger())
	result := issuer.Issue(context.Background(), "member1", "api-key")

	require.Equal(t, http.StatusInternalServerError, result.Status)
	require.Equal(t, "Failed to generate session token.", result.Err)
	require.Empty(t, result.Token)
}

func TestIssueCollapsesMalformedBodyToGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer server.Close()

	issuer := NewTokenIssuer(server.URL, server.Client(), discardLogger())
	result := issuer.Issue(context.Background(), "member1", "api-key")
	require.Equal(t, http.StatusInternalServerError, result.Status)
	require.Equal(t, "Failed to generate session token.", result.Err)
}
