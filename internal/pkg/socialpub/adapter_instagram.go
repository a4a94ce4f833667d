package socialpub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

const instagramGraphURL = "https://graph.facebook.com/v19.0"

// instagramAdapter publishes through the Graph API's two-step container
// flow: create a media container from a public image URL, then publish it.
// Instagram has no text-only posts, so an image is mandatory.
type instagramAdapter struct {
	store      credentials.Store
	httpClient *http.Client
	apiURL     string
}

// NewInstagramAdapter creates the Instagram adapter for one user's store.
func NewInstagramAdapter(store credentials.Store, httpClient *http.Client) Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &instagramAdapter{store: store, httpClient: httpClient, apiURL: instagramGraphURL}
}

func (a *instagramAdapter) Platform() models.Platform {
	return models.PlatformInstagram
}

func (a *instagramAdapter) Publish(ctx context.Context, content, mediaURL string) error {
	cred, err := a.store.Get(ctx, models.PlatformInstagram)
	if err != nil || !cred.Connected() {
		return ErrNotConnected
	}
	if cred.ExternalID == "" {
		return fmt.Errorf("instagram credential has no account id")
	}
	if mediaURL == "" {
		return ErrMediaRequired
	}

	containerID, err := a.createContainer(ctx, cred, content, mediaURL)
	if err != nil {
		return err
	}
	return a.publishContainer(ctx, cred, containerID)
}

func (a *instagramAdapter) createContainer(ctx context.Context, cred models.PlatformCredential, caption, mediaURL string) (string, error) {
	params := url.Values{}
	params.Set("image_url", mediaURL)
	params.Set("caption", caption)
	params.Set("access_token", cred.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media", a.apiURL, cred.ExternalID)
	var result struct {
		ID string `json:"id"`
	}
	if err := a.postForm(ctx, endpoint, params, &result); err != nil {
		return "", fmt.Errorf("creating media container: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("creating media container: empty container id")
	}
	return result.ID, nil
}

func (a *instagramAdapter) publishContainer(ctx context.Context, cred models.PlatformCredential, containerID string) error {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", cred.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish", a.apiURL, cred.ExternalID)
	var result struct {
		ID string `json:"id"`
	}
	if err := a.postForm(ctx, endpoint, params, &result); err != nil {
		return fmt.Errorf("publishing media container: %w", err)
	}
	return nil
}

func (a *instagramAdapter) postForm(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("instagram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("instagram api returned %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
