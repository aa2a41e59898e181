package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/provider"
)

// GraphProviderConfig holds the configuration for creating a GraphProvider.
type GraphProviderConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
}

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// GraphProvider posts MIME documents to the Microsoft Graph sendMail endpoint
// on behalf of a mailbox, authenticating with OAuth2 client credentials.
type GraphProvider struct {
	sender     string
	graphURL   string
	httpClient *http.Client
	token      *tokenCache
	retry      provider.RetryPolicy
}

// New creates a new GraphProvider with the given configuration.
func New(cfg GraphProviderConfig) *GraphProvider {
	tokenURL := fmt.Sprintf(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/token",
		cfg.TenantID,
	)

	client := &http.Client{Timeout: 30 * time.Second}

	return &GraphProvider{
		sender:     cfg.Sender,
		graphURL:   fmt.Sprintf("https://graph.microsoft.com/v1.0/users/%s/sendMail", url.PathEscape(cfg.Sender)),
		httpClient: client,
		token:      newTokenCache(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
		retry:      provider.RetryPolicy{MaxRetries: maxRetries, BaseDelay: baseRetryDelay},
	}
}

// newWithOverrides creates a GraphProvider with custom URLs and HTTP client,
// used for testing.
func newWithOverrides(cfg GraphProviderConfig, graphURL, tokenURL string, client *http.Client) *GraphProvider {
	return &GraphProvider{
		sender:     cfg.Sender,
		graphURL:   graphURL,
		httpClient: client,
		token:      newTokenCache(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
		retry:      provider.RetryPolicy{MaxRetries: maxRetries, BaseDelay: time.Millisecond},
	}
}

// Send delivers the serialized document through the Graph sendMail endpoint.
// Transient failures are retried with exponential backoff, HTTP 429 honours
// Retry-After, and HTTP 401 triggers one token refresh.
func (g *GraphProvider) Send(ctx context.Context, exp *email.Export) error {
	payload, err := buildMIMEPayload(exp)
	if err != nil {
		return fmt.Errorf("building sendMail payload: %w", err)
	}

	tokenRefreshed := false
	err = g.retry.Do(ctx,
		func(ctx context.Context) error { return g.doSendRequest(ctx, payload) },
		func(err error, attempt int) (time.Duration, error) {
			var graphErr *sendError
			if !errors.As(err, &graphErr) || graphErr.permanent {
				return 0, err
			}

			switch {
			case graphErr.statusCode == http.StatusUnauthorized && !tokenRefreshed:
				// Refresh token once and retry immediately
				slog.Info("refreshing Graph API token after 401")
				if _, refreshErr := g.token.ForceRefresh(ctx); refreshErr != nil {
					return 0, fmt.Errorf("token refresh failed: %w", refreshErr)
				}
				tokenRefreshed = true
				return 0, nil
			case graphErr.statusCode == http.StatusTooManyRequests:
				delay := g.retryAfterDelay(graphErr.retryAfter, attempt)
				slog.Info("rate limited by Graph API", "retry_after", delay)
				return delay, nil
			default:
				delay := g.retry.Backoff(attempt)
				slog.Info("transient Graph API error, retrying",
					"status", graphErr.statusCode,
					"attempt", attempt,
					"delay", delay,
				)
				return delay, nil
			}
		},
	)
	if err != nil {
		return fmt.Errorf("Graph API request: %w", err)
	}

	slog.Info("message sent via Graph", "file", exp.Filename)
	return nil
}

// Name returns the provider name.
func (g *GraphProvider) Name() string {
	return "msgraph"
}

// doSendRequest performs a single HTTP request to the Graph API sendMail endpoint.
func (g *GraphProvider) doSendRequest(ctx context.Context, payload []byte) error {
	token, err := g.token.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// MIME content is sent base64-encoded as text/plain.
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &sendError{
			message:   fmt.Sprintf("HTTP request failed: %v", err),
			transient: true,
		}
	}
	defer resp.Body.Close()

	// HTTP 202 Accepted is success for sendMail
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	var graphErrResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &graphErrResp); jsonErr == nil && graphErrResp.Error.Message != "" {
		return classifyError(resp.StatusCode, graphErrResp.Error.Message, resp.Header.Get("Retry-After"))
	}

	return classifyError(resp.StatusCode, string(body), resp.Header.Get("Retry-After"))
}

// sendError represents an error from the Graph API send operation with
// classification for retry logic.
type sendError struct {
	message    string
	statusCode int
	permanent  bool
	transient  bool
	retryAfter string
}

func (e *sendError) Error() string {
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
}

// classifyError maps a failed sendMail status to a retry decision: 401, 429
// and 5xx are worth another attempt and everything else is final.
func classifyError(statusCode int, message, retryAfter string) *sendError {
	transient := statusCode == http.StatusUnauthorized ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
	return &sendError{
		message:    message,
		statusCode: statusCode,
		retryAfter: retryAfter,
		permanent:  !transient,
		transient:  transient,
	}
}

// retryAfterDelay honours a positive Retry-After given in seconds and
// otherwise falls back to the backoff for attempt.
func (g *GraphProvider) retryAfterDelay(header string, attempt int) time.Duration {
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return g.retry.Backoff(attempt)
}
