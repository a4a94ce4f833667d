package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
)

func TestClient_GetCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/credentials" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "u1" {
			t.Errorf("unexpected userId %q", got)
		}
		if got := r.URL.Query().Get("platform"); got != "linkedin" {
			t.Errorf("unexpected platform %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"credentials":{"connected":true,"access_token":"tok","saved_at":"2025-06-01T12:00:00Z"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	creds, err := client.GetCredentials(context.Background(), "u1", models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !creds.Connected || creds.AccessToken != "tok" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestClient_GetCredentials_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"not_found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.GetCredentials(context.Background(), "u1", models.PlatformLinkedIn)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetAllCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("platform") {
			t.Errorf("all-platform read must not send a platform")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"credentials":{"linkedin":{"connected":true},"twitter":{"connected":false}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	all, err := client.GetAllCredentials(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || !all[models.PlatformLinkedIn].Connected {
		t.Fatalf("unexpected credential map: %+v", all)
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nil)
	server.Close()

	client := NewClient(server.URL, 200*time.Millisecond)
	_, err := client.GetCredentials(context.Background(), "u1", models.PlatformLinkedIn)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestClient_ExchangeToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Action != "exchange_token" || req.Code != "the-code" || req.RedirectURI == "" {
			t.Errorf("unexpected exchange request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"profile":{"platform":"linkedin","connected":true,"external_id":"ext-9","name":"Jane"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	profile, err := client.ExchangeToken(context.Background(), "u1", models.PlatformLinkedIn, "the-code", "http://localhost/auth/linkedin/callback/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ExternalID != "ext-9" || profile.Name != "Jane" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestClient_ErrorTextPassesThroughVerbatim(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":"linkedin publish failed with status 422: DUPLICATE_POST"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.Publish(context.Background(), "u1", models.PlatformLinkedIn, "same text again", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	// The caller classifies duplicates from the upstream wording.
	if !strings.Contains(err.Error(), "DUPLICATE_POST") {
		t.Fatalf("upstream error text mangled: %v", err)
	}
}

func TestCredentials_StringMasksToken(t *testing.T) {
	t.Parallel()

	creds := Credentials{Connected: true, AccessToken: "super-secret-token", ExternalID: "ext"}
	rendered := creds.String()
	if strings.Contains(rendered, "super-secret-token") {
		t.Fatalf("raw token leaked into log rendering: %s", rendered)
	}
	if !strings.Contains(rendered, "supe****") {
		t.Fatalf("expected masked prefix in %s", rendered)
	}
}
