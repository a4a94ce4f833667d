package socialpub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

const twitterTweetsURL = "https://api.twitter.com/2/tweets"

// twitterAdapter publishes client-side against the v2 tweets endpoint.
type twitterAdapter struct {
	store      credentials.Store
	httpClient *http.Client
	apiURL     string
}

// NewTwitterAdapter creates the Twitter/X adapter for one user's store.
func NewTwitterAdapter(store credentials.Store, httpClient *http.Client) Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &twitterAdapter{store: store, httpClient: httpClient, apiURL: twitterTweetsURL}
}

func (a *twitterAdapter) Platform() models.Platform {
	return models.PlatformTwitter
}

func (a *twitterAdapter) Publish(ctx context.Context, content, mediaURL string) error {
	cred, err := a.store.Get(ctx, models.PlatformTwitter)
	if err != nil || !cred.Connected() {
		return ErrNotConnected
	}

	// Native media upload needs the v1.1 chunked endpoint and a separate
	// permission tier; the image travels as a link instead.
	text := content
	if mediaURL != "" {
		text = content + "\n" + mediaURL
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twitter api returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
