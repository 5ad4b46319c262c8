package vertex

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	domain "github.com/contentedge/insight/internal/domain/analysis"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// newTokenSource exchanges the long-lived service-account key for short-lived
// access tokens against Google's OAuth token endpoint. The JWT assertion is
// signed with the key's private key; tokens are cached and refreshed by the
// oauth2 package.
func newTokenSource(ctx context.Context, keyJSON []byte) (oauth2.TokenSource, string, error) {
	conf, err := google.JWTConfigFromJSON(keyJSON, cloudPlatformScope)
	if err != nil {
		return nil, "", fmt.Errorf("parsing service account key: %w", err)
	}

	var key struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(keyJSON, &key); err != nil {
		return nil, "", fmt.Errorf("parsing service account key: %w", err)
	}
	if key.ProjectID == "" {
		return nil, "", fmt.Errorf("service account key has no project_id")
	}

	return conf.TokenSource(ctx), key.ProjectID, nil
}

// accessToken fetches a token for one request. Failure here is fatal for the
// request: no analysis can proceed without provider credentials.
func (c *Client) accessToken() (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamAuth, err)
	}
	return tok.AccessToken, nil
}
