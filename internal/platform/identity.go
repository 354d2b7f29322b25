package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type identityTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// FetchAccessToken performs the password-grant exchange against the identity
// service. It backs the standalone gettoken utility only; the request pipeline
// never calls it.
func FetchAccessToken(ctx context.Context, doer Doer, tokenURL, space, username, password string) (string, error) {
	if doer == nil {
		return "", errors.New("platform: http client missing")
	}
	clientID := "www.ziqni.app"
	if strings.TrimSpace(space) != "" {
		clientID = space + ".ziqni.app"
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("platform: identity request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("platform: identity token exchange: %w", err)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	closeErr := resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("platform: identity read response: %w", err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("platform: identity close response: %w", closeErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("platform: identity token exchange: unexpected status %d", resp.StatusCode)
	}

	var decoded identityTokenResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("platform: identity decode response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("platform: identity response missing access token")
	}
	return decoded.AccessToken, nil
}
