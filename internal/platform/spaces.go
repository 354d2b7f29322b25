package platform

import (
	"context"
	"fmt"
)

// Space is one allow-list entry returned by the platform spaces endpoint.
type Space struct {
	SpaceName string `json:"spaceName"`
}

type spacesResponse struct {
	Results []Space `json:"results"`
}

// SpaceLister fetches the caller's entitled spaces. The list is re-fetched on
// every request and never cached.
type SpaceLister struct {
	baseURL string
	doer    Doer
}

// NewSpaceLister binds the lister to the platform base URL.
func NewSpaceLister(baseURL string, doer Doer) *SpaceLister {
	return &SpaceLister{baseURL: baseURL, doer: doer}
}

// ListAllowed fetches the allow-list using the caller's raw bearer token. A
// failed fetch propagates as an error; there is no fallback list.
func (s *SpaceLister) ListAllowed(ctx context.Context, token string) ([]Space, error) {
	client := NewClient(s.baseURL, token, s.doer)
	var decoded spacesResponse
	if err := client.GetJSON(ctx, "/spaces", &decoded); err != nil {
		return nil, fmt.Errorf("fetch allowed spaces: %w", err)
	}
	return decoded.Results, nil
}

// IsAllowed reports whether space exactly matches one of the entries. The
// comparison is case sensitive.
func IsAllowed(space string, allowed []Space) bool {
	for _, entry := range allowed {
		if entry.SpaceName == space {
			return true
		}
	}
	return false
}
