package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// PlatformApp holds the OAuth application registered at one platform.
// The client only ever needs the ID and scope; the secret stays on the broker.
type PlatformApp struct {
	ClientID     string `validate:"required"`
	ClientSecret string
	Scope        string
}

// Config is the single validated configuration object passed to every
// component that needs one. It replaces ad hoc env lookups at call sites.
type Config struct {
	AppEnv       string `validate:"oneof=dev staging prod"`
	AppHost      string
	AppPort      string `validate:"required"`
	PublicDomain string `validate:"required,url"`

	// Credential store backend selection.
	CredentialBackend  string        `validate:"oneof=local remote"`
	BrokerBaseURL      string        `validate:"required_unless=CredentialBackend local,omitempty,url"`
	BrokerTimeout      time.Duration `validate:"min=1s"`
	CredentialCacheTTL time.Duration `validate:"min=1m,max=1h"`

	// Publishing.
	AuthorizeTimeout time.Duration `validate:"min=10s"`
	PublishTimeout   time.Duration `validate:"min=1s"`
	EnabledPlatforms map[models.Platform]bool

	// Broker service settings.
	DemoMode       bool
	AdminSecret    string   `validate:"required"`
	AllowedOrigins []string `validate:"min=1,dive,required"`
	VaultKey       string   `validate:"omitempty,len=64,hexadecimal"`

	Platforms map[models.Platform]PlatformApp
}

// Load builds the configuration from the environment. Call env.SetupEnvFile
// first so .env values are visible.
func Load() *Config {
	cfg := &Config{
		AppEnv:       env.GetEnv("APP_ENV", "dev"),
		AppHost:      env.GetEnv("APP_HOST", "localhost"),
		AppPort:      env.GetEnv("APP_PORT", "4000"),
		PublicDomain: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/"),

		CredentialBackend:  env.GetEnv("CREDENTIAL_BACKEND", BackendRemote),
		BrokerBaseURL:      strings.TrimRight(env.GetEnv("BROKER_BASE_URL", ""), "/"),
		BrokerTimeout:      env.GetDuration("BROKER_TIMEOUT", 15*time.Second),
		CredentialCacheTTL: env.GetDuration("CREDENTIAL_CACHE_TTL", 20*time.Minute),

		AuthorizeTimeout: env.GetDuration("AUTHORIZE_TIMEOUT", 120*time.Second),
		PublishTimeout:   env.GetDuration("PUBLISH_TIMEOUT", 45*time.Second),

		DemoMode:       env.GetBool("PUBLISH_DEMO_MODE", false),
		AdminSecret:    env.GetEnv("ADMIN_SECRET", ""),
		AllowedOrigins: splitList(env.GetEnv("ALLOWED_ORIGINS", "http://localhost:4000")),
		VaultKey:       env.GetEnv("VAULT_KEY", ""),

		EnabledPlatforms: map[models.Platform]bool{
			models.PlatformLinkedIn:  env.GetBool("LINKEDIN_ENABLED", true),
			models.PlatformInstagram: env.GetBool("INSTAGRAM_ENABLED", true),
			models.PlatformTwitter:   env.GetBool("TWITTER_ENABLED", true),
		},
		Platforms: map[models.Platform]PlatformApp{
			models.PlatformLinkedIn: {
				ClientID:     env.GetEnv("LINKEDIN_CLIENT_ID", ""),
				ClientSecret: env.GetEnv("LINKEDIN_CLIENT_SECRET", ""),
				Scope:        env.GetEnv("LINKEDIN_SCOPE", "openid profile w_member_social"),
			},
			models.PlatformInstagram: {
				ClientID:     env.GetEnv("INSTAGRAM_CLIENT_ID", ""),
				ClientSecret: env.GetEnv("INSTAGRAM_CLIENT_SECRET", ""),
				Scope:        env.GetEnv("INSTAGRAM_SCOPE", "instagram_basic,instagram_content_publish"),
			},
			models.PlatformTwitter: {
				ClientID:     env.GetEnv("TWITTER_CLIENT_ID", ""),
				ClientSecret: env.GetEnv("TWITTER_CLIENT_SECRET", ""),
				Scope:        env.GetEnv("TWITTER_SCOPE", "tweet.read tweet.write users.read"),
			},
		},
	}

	return cfg
}

// Validate checks the configuration once at startup so components can trust
// their inputs afterwards.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for platform, enabled := range c.EnabledPlatforms {
		if !enabled {
			continue
		}
		app, ok := c.Platforms[platform]
		if !ok || app.ClientID == "" {
			return fmt.Errorf("invalid configuration: platform %s enabled but no client id set", platform)
		}
	}

	return nil
}

// RedirectURI builds the callback URL registered at the platform:
// <origin>/auth/<platform>/callback/.
func (c *Config) RedirectURI(platform models.Platform) string {
	return fmt.Sprintf("%s/auth/%s/callback/", c.PublicDomain, platform)
}

// PlatformEnabled reports whether content generation and publishing are
// switched on for a platform.
func (c *Config) PlatformEnabled(platform models.Platform) bool {
	return c.EnabledPlatforms[platform]
}

// OriginAllowed checks an Origin header against the CORS allow-list.
func (c *Config) OriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), strings.TrimRight(origin, "/")) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
