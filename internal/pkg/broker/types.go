package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// ErrNotFound is returned when the broker has no credential for the
// requested (user, platform). Callers map it to "disconnected".
var ErrNotFound = errors.New("broker: credential not found")

// ErrUnreachable wraps transport-level failures so callers can decide to
// fall back to a local snapshot.
var ErrUnreachable = errors.New("broker: unreachable")

// Credentials is the wire form of one platform credential. Unlike the local
// model it carries the raw tokens, because the broker is the component that
// persists them.
type Credentials struct {
	Connected    bool      `json:"connected"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExternalID   string    `json:"external_id,omitempty"`
	SavedAt      time.Time `json:"saved_at,omitempty"`
}

// String renders the wire credentials with masked secrets.
func (c Credentials) String() string {
	return fmt.Sprintf("broker.Credentials{connected=%t external_id=%s token=%s}",
		c.Connected, c.ExternalID, models.MaskSecret(c.AccessToken))
}

// Profile is the redacted result of a token exchange. The broker keeps the
// raw tokens server-side and only ever returns this view.
type Profile struct {
	Platform   models.Platform `json:"platform"`
	Connected  bool            `json:"connected"`
	ExternalID string          `json:"external_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// request is the POST body for all broker actions.
type request struct {
	UserID      string          `json:"userId"`
	Platform    models.Platform `json:"platform"`
	Action      string          `json:"action,omitempty"`
	Credentials *Credentials    `json:"credentials,omitempty"`
	Code        string          `json:"code,omitempty"`
	RedirectURI string          `json:"redirectUri,omitempty"`
	Content     string          `json:"content,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// response is the common broker response envelope. The credentials field is
// either a single object (platform given) or a platform-keyed map (platform
// omitted), so it is decoded lazily.
type response struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
	Credentials json.RawMessage `json:"credentials,omitempty"`
	Profile     *Profile        `json:"profile,omitempty"`
}

const (
	actionExchangeToken = "exchange_token"
	actionPublish       = "publish"
	actionTest          = "test"
)
