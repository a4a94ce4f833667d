// Package upstream holds the broker's outbound calls to the social
// platforms: code-for-token exchange, profile probes, and the delegated
// LinkedIn publish.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/authflow"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

const (
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"
	linkedinPostsURL    = "https://api.linkedin.com/v2/ugcPosts"
	twitterMeURL        = "https://api.twitter.com/2/users/me"
	instagramMeURL      = "https://graph.instagram.com/me"
)

// Client performs platform API calls on behalf of the broker.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExchangeToken swaps the authorization code for tokens at the platform and
// fetches a profile for the redacted response. The redirect URI must match
// the one used during authorization or the platform rejects the code.
func (c *Client) ExchangeToken(ctx context.Context, platform models.Platform, code, redirectURI string) (broker.Credentials, broker.Profile, error) {
	oauthCfg, err := authflow.OAuthConfig(c.cfg, platform)
	if err != nil {
		return broker.Credentials{}, broker.Profile{}, err
	}
	if redirectURI != "" {
		oauthCfg.RedirectURL = redirectURI
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return broker.Credentials{}, broker.Profile{}, fmt.Errorf("token exchange with %s failed: %w", platform, err)
	}

	creds := broker.Credentials{
		Connected:    true,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		SavedAt:      time.Now().UTC(),
	}

	profile, err := c.Probe(ctx, platform, creds)
	if err != nil {
		// The token is valid even when the profile endpoint hiccups.
		profile = broker.Profile{Platform: platform, Connected: true}
	}
	creds.ExternalID = profile.ExternalID

	return creds, profile, nil
}

// Probe checks that a stored credential still works by fetching the
// account's own profile.
func (c *Client) Probe(ctx context.Context, platform models.Platform, creds broker.Credentials) (broker.Profile, error) {
	switch platform {
	case models.PlatformLinkedIn:
		return c.probeLinkedIn(ctx, creds)
	case models.PlatformTwitter:
		return c.probeTwitter(ctx, creds)
	case models.PlatformInstagram:
		return c.probeInstagram(ctx, creds)
	default:
		return broker.Profile{}, fmt.Errorf("unknown platform %q", platform)
	}
}

func (c *Client) probeLinkedIn(ctx context.Context, creds broker.Credentials) (broker.Profile, error) {
	var info struct {
		Sub  string `json:"sub"`
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, linkedinUserInfoURL, creds.AccessToken, &info); err != nil {
		return broker.Profile{}, err
	}
	return broker.Profile{
		Platform:   models.PlatformLinkedIn,
		Connected:  true,
		ExternalID: info.Sub,
		Name:       info.Name,
	}, nil
}

func (c *Client) probeTwitter(ctx context.Context, creds broker.Credentials) (broker.Profile, error) {
	var body struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, twitterMeURL, creds.AccessToken, &body); err != nil {
		return broker.Profile{}, err
	}
	return broker.Profile{
		Platform:   models.PlatformTwitter,
		Connected:  true,
		ExternalID: body.Data.ID,
		Name:       body.Data.Username,
	}, nil
}

func (c *Client) probeInstagram(ctx context.Context, creds broker.Credentials) (broker.Profile, error) {
	probeURL := fmt.Sprintf("%s?fields=id,username&access_token=%s",
		instagramMeURL, url.QueryEscape(creds.AccessToken))

	var body struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := c.getJSON(ctx, probeURL, "", &body); err != nil {
		return broker.Profile{}, err
	}
	return broker.Profile{
		Platform:   models.PlatformInstagram,
		Connected:  true,
		ExternalID: body.ID,
		Name:       body.Username,
	}, nil
}

// PublishLinkedIn posts a UGC share for the credential's member. A repeated
// identical post comes back from LinkedIn as 422 DUPLICATE_POST; the error
// text is passed through so the client can classify it.
func (c *Client) PublishLinkedIn(ctx context.Context, creds broker.Credentials, content, imageURL string) error {
	if creds.ExternalID == "" {
		return fmt.Errorf("linkedin credential has no member id")
	}

	share := map[string]any{
		"author":         "urn:li:person:" + creds.ExternalID,
		"lifecycleState": "PUBLISHED",
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": content},
		"shareMediaCategory": "NONE",
	}
	if imageURL != "" {
		shareContent["shareMediaCategory"] = "ARTICLE"
		shareContent["media"] = []map[string]any{
			{"status": "READY", "originalUrl": imageURL},
		}
	}
	share["specificContent"] = map[string]any{"com.linkedin.ugc.ShareContent": shareContent}

	payload, err := json.Marshal(share)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinPostsURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("linkedin publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("linkedin publish failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func (c *Client) getJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("profile request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
