package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// graphScope requests every application permission granted to the client.
const graphScope = "https://graph.microsoft.com/.default"

// tokenExpiryBuffer is subtracted from a token's expiry so a token is never
// handed out moments before it lapses mid-request.
const tokenExpiryBuffer = 5 * time.Minute

// tokenCache hands out access tokens from the client credentials grant and
// reuses each one until shortly before it expires. It is safe for concurrent
// use; callers queue behind a single in-flight refresh.
type tokenCache struct {
	config     clientcredentials.Config
	httpClient *http.Client

	mu        sync.Mutex
	token     *oauth2.Token
	expiresAt time.Time
}

// newTokenCache creates a token cache for the given client credentials.
func newTokenCache(tokenURL, clientID, clientSecret string, httpClient *http.Client) *tokenCache {
	return &tokenCache{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

// Token returns a cached access token or fetches a new one.
func (tc *tokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.token != nil && time.Now().Before(tc.expiresAt) {
		return tc.token.AccessToken, nil
	}
	return tc.fetch(ctx)
}

// ForceRefresh discards the cached token and fetches a new one. It is used
// when Graph rejects the current token with 401.
func (tc *tokenCache) ForceRefresh(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.token = nil
	return tc.fetch(ctx)
}

// fetch runs the client credentials grant. The caller must hold tc.mu.
func (tc *tokenCache) fetch(ctx context.Context) (string, error) {
	if tc.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, tc.httpClient)
	}

	tok, err := tc.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}

	tc.token = tok
	// A token without an expiry lands in the past here and is never reused.
	tc.expiresAt = tok.Expiry.Add(-tokenExpiryBuffer)
	return tok.AccessToken, nil
}
