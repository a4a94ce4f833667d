package config

import (
	"strings"
	"testing"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
)

func validConfig() *Config {
	return &Config{
		AppEnv:       "dev",
		AppPort:      "4000",
		PublicDomain: "http://localhost:4000",

		CredentialBackend:  BackendRemote,
		BrokerBaseURL:      "http://localhost:4100",
		BrokerTimeout:      15 * time.Second,
		CredentialCacheTTL: 20 * time.Minute,

		AuthorizeTimeout: 120 * time.Second,
		PublishTimeout:   45 * time.Second,

		AdminSecret:    "test-admin-secret",
		AllowedOrigins: []string{"http://localhost:4000"},

		EnabledPlatforms: map[models.Platform]bool{
			models.PlatformLinkedIn: true,
		},
		Platforms: map[models.Platform]PlatformApp{
			models.PlatformLinkedIn: {ClientID: "id", Scope: "openid"},
		},
	}
}

func TestValidate_AcceptsValidConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown env", mutate: func(c *Config) { c.AppEnv = "production" }},
		{name: "missing admin secret", mutate: func(c *Config) { c.AdminSecret = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.CredentialBackend = "s3" }},
		{name: "remote backend without broker url", mutate: func(c *Config) { c.BrokerBaseURL = "" }},
		{name: "cache ttl below floor", mutate: func(c *Config) { c.CredentialCacheTTL = 10 * time.Second }},
		{name: "cache ttl above ceiling", mutate: func(c *Config) { c.CredentialCacheTTL = 2 * time.Hour }},
		{name: "authorize window too small", mutate: func(c *Config) { c.AuthorizeTimeout = time.Second }},
		{name: "empty origin allow-list", mutate: func(c *Config) { c.AllowedOrigins = nil }},
		{name: "vault key wrong length", mutate: func(c *Config) { c.VaultKey = "abcd" }},
		{name: "enabled platform without client id", mutate: func(c *Config) {
			c.EnabledPlatforms[models.PlatformTwitter] = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidate_LocalBackendNeedsNoBrokerURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CredentialBackend = BackendLocal
	cfg.BrokerBaseURL = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("local backend must not require a broker url: %v", err)
	}
}

func TestRedirectURI(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	got := cfg.RedirectURI(models.PlatformLinkedIn)
	if got != "http://localhost:4000/auth/linkedin/callback/" {
		t.Fatalf("unexpected redirect URI: %s", got)
	}
	if !strings.HasSuffix(got, "/") {
		t.Fatalf("redirect URI must keep its trailing slash: %s", got)
	}
}

func TestOriginAllowed(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AllowedOrigins = []string{"http://localhost:4000", "https://app.example.com/"}

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "http://localhost:4000", want: true},
		{origin: "http://localhost:4000/", want: true},
		{origin: "HTTP://LOCALHOST:4000", want: true},
		{origin: "https://app.example.com", want: true},
		{origin: "https://evil.example.com", want: false},
		{origin: "http://localhost:4001", want: false},
	}
	for _, tt := range tests {
		if got := cfg.OriginAllowed(tt.origin); got != tt.want {
			t.Fatalf("OriginAllowed(%q) = %t, want %t", tt.origin, got, tt.want)
		}
	}
}

func TestPlatformEnabled(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if !cfg.PlatformEnabled(models.PlatformLinkedIn) {
		t.Fatalf("linkedin should be enabled")
	}
	if cfg.PlatformEnabled(models.PlatformInstagram) {
		t.Fatalf("instagram was never enabled")
	}
}
