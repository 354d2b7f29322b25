package platform

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// sessionTokenTTLSeconds is the lifetime requested for every issued session
// token, matching the relay's result cache window.
const sessionTokenTTLSeconds = 1800

// SessionTokenResult mirrors the issuer contract: a status code plus either a
// token or a client-safe error message. It is produced fresh for every
// aggregate run and never cached.
type SessionTokenResult struct {
	Status int
	Token  string
	Err    string
}

type memberTokenRequest struct {
	Member        string `json:"member"`
	APIKey        string `json:"apiKey"`
	IsReferenceID bool   `json:"isReferenceId"`
	Expires       int    `json:"expires"`
	Resource      string `json:"resource"`
}

type memberTokenResponse struct {
	Data struct {
		JWTToken string `json:"jwtToken"`
	} `json:"data"`
}

// TokenIssuer exchanges a member reference and API key for a short-lived
// session token at the platform member-token endpoint.
type TokenIssuer struct {
	baseURL string
	doer    Doer
	logger  *slog.Logger
}

// NewTokenIssuer builds an issuer bound to the platform base URL.
func NewTokenIssuer(baseURL string, doer Doer, logger *slog.Logger) *TokenIssuer {
	return &TokenIssuer{
		baseURL: baseURL,
		doer:    doer,
		logger:  logger,
	}
}

// Issue validates its inputs locally, then performs one POST against the
// member-token endpoint. Invalid input short-circuits without a network call;
// any upstream failure collapses to a generic 500 result.
func (i *TokenIssuer) Issue(ctx context.Context, memberRefID, apiKey string) SessionTokenResult {
	if strings.TrimSpace(memberRefID) == "" {
		return SessionTokenResult{Status: http.StatusBadRequest, Err: `Invalid or missing "memberRefId". It must be a string.`}
	}
	if strings.TrimSpace(apiKey) == "" {
		return SessionTokenResult{Status: http.StatusBadRequest, Err: `Invalid or missing "apiKey". It must be a string.`}
	}

	client := NewClient(i.baseURL, "", i.doer)
	payload := memberTokenRequest{
		Member:        memberRefID,
		APIKey:        apiKey,
		IsReferenceID: true,
		Expires:       sessionTokenTTLSeconds,
		Resource:      "ziqni-gapi",
	}
	var decoded memberTokenResponse
	if err := client.PostJSON(ctx, "/member-token", payload, &decoded); err != nil {
		if i.logger != nil {
			i.logger.Error("session token issuance failed", slog.Any("error", err))
		}
		return SessionTokenResult{Status: http.StatusInternalServerError, Err: "Failed to generate session token."}
	}

	return SessionTokenResult{Status: http.StatusOK, Token: decoded.Data.JWTToken}
}
