package authflow

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/instagram"
	"golang.org/x/oauth2/linkedin"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// twitterEndpoint is the X/Twitter OAuth 2.0 authorization-code endpoint.
// x/oauth2 ships no endpoint for it.
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

// OAuthConfig builds the oauth2 configuration for one platform. The client
// secret is only populated where the broker runs the exchange; the client app
// passes configs without secrets.
func OAuthConfig(cfg *config.Config, platform models.Platform) (*oauth2.Config, error) {
	app, ok := cfg.Platforms[platform]
	if !ok || app.ClientID == "" {
		return nil, fmt.Errorf("no oauth application configured for %s", platform)
	}

	var endpoint oauth2.Endpoint
	switch platform {
	case models.PlatformLinkedIn:
		endpoint = linkedin.Endpoint
	case models.PlatformInstagram:
		endpoint = instagram.Endpoint
	case models.PlatformTwitter:
		endpoint = twitterEndpoint
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURI(platform),
		Scopes:       splitScope(app.Scope),
	}, nil
}

// splitScope accepts both space- and comma-separated scope lists; the
// platforms disagree on the separator.
func splitScope(scope string) []string {
	fields := strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ','
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
