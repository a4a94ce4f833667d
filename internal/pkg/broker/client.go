package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
)

const credentialsPath = "/api/v1/credentials"

// Client is a typed client for the secret broker's JSON wire protocol.
// Every call is scoped to one (userId, platform) pair.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a broker client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetCredentials fetches the stored credential for one platform.
// Returns ErrNotFound when the broker has nothing stored and ErrUnreachable
// when the broker cannot be reached at all.
func (c *Client) GetCredentials(ctx context.Context, userID string, platform models.Platform) (*Credentials, error) {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("platform", string(platform))

	resp, err := c.do(ctx, http.MethodGet, "?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if len(resp.Credentials) == 0 {
		return nil, ErrNotFound
	}
	if err := json.Unmarshal(resp.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("broker: decoding credentials: %w", err)
	}
	return &creds, nil
}

// GetAllCredentials fetches the credentials of every platform at once.
func (c *Client) GetAllCredentials(ctx context.Context, userID string) (map[models.Platform]Credentials, error) {
	q := url.Values{}
	q.Set("userId", userID)

	resp, err := c.do(ctx, http.MethodGet, "?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	all := make(map[models.Platform]Credentials)
	if len(resp.Credentials) > 0 {
		if err := json.Unmarshal(resp.Credentials, &all); err != nil {
			return nil, fmt.Errorf("broker: decoding credentials map: %w", err)
		}
	}
	return all, nil
}

// SaveCredentials stores a credential at the broker.
func (c *Client) SaveCredentials(ctx context.Context, userID string, platform models.Platform, creds Credentials) error {
	_, err := c.do(ctx, http.MethodPost, "", &request{
		UserID:      userID,
		Platform:    platform,
		Credentials: &creds,
	})
	return err
}

// DeleteCredentials removes a credential. The broker treats deleting an
// absent credential as success, so this call is idempotent.
func (c *Client) DeleteCredentials(ctx context.Context, userID string, platform models.Platform) error {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("platform", string(platform))
	_, err := c.do(ctx, http.MethodDelete, "?"+q.Encode(), nil)
	return err
}

// ExchangeToken posts an authorization code for the platform-specific
// code-for-token exchange. The broker persists the resulting credential
// server-side and returns only a redacted profile.
func (c *Client) ExchangeToken(ctx context.Context, userID string, platform models.Platform, code, redirectURI string) (*Profile, error) {
	resp, err := c.do(ctx, http.MethodPost, "", &request{
		UserID:      userID,
		Platform:    platform,
		Action:      actionExchangeToken,
		Code:        code,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return nil, err
	}
	if resp.Profile == nil {
		return &Profile{Platform: platform, Connected: true}, nil
	}
	return resp.Profile, nil
}

// Publish asks the broker to perform a delegated publish call upstream.
// The upstream error text is passed through verbatim so the caller can
// classify it.
func (c *Client) Publish(ctx context.Context, userID string, platform models.Platform, content, imageURL string) error {
	_, err := c.do(ctx, http.MethodPost, "", &request{
		UserID:   userID,
		Platform: platform,
		Action:   actionPublish,
		Content:  content,
		ImageURL: imageURL,
	})
	return err
}

// Test probes the stored credential against the platform API and returns a
// human-readable status message.
func (c *Client) Test(ctx context.Context, userID string, platform models.Platform) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "", &request{
		UserID:   userID,
		Platform: platform,
		Action:   actionTest,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, query string, body *request) (*response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+credentialsPath+query, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer httpResp.Body.Close()

	var resp response
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("broker: invalid response (status %d): %w", httpResp.StatusCode, err)
		}
	}

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if !resp.Success {
		if resp.Error == "not_found" {
			return nil, ErrNotFound
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("broker: %s", resp.Error)
		}
		return nil, fmt.Errorf("broker: request failed with status %d", httpResp.StatusCode)
	}

	return &resp, nil
}
