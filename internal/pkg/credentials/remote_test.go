package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
)

type memSnapshotter struct {
	snaps map[string]models.PlatformCredential
}

func newMemSnapshotter() *memSnapshotter {
	return &memSnapshotter{snaps: make(map[string]models.PlatformCredential)}
}

func (s *memSnapshotter) Load(userID string, platform models.Platform) (models.PlatformCredential, bool) {
	cred, ok := s.snaps[userID+"/"+string(platform)]
	return cred, ok
}

func (s *memSnapshotter) Store(cred models.PlatformCredential) {
	s.snaps[cred.UserID+"/"+string(cred.Platform)] = cred
}

func (s *memSnapshotter) Drop(userID string, platform models.Platform) {
	delete(s.snaps, userID+"/"+string(platform))
}

func remoteFixture(t *testing.T, handler http.HandlerFunc) (Store, *memSnapshotter, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := broker.NewClient(server.URL, time.Second)
	snaps := newMemSnapshotter()
	store := NewRemoteStore(client, NewCache(time.Hour, nil), snaps, "u1")
	return store, snaps, server.Close
}

func TestRemoteStore_NotFoundMeansDisconnected(t *testing.T) {
	t.Parallel()

	store, _, done := remoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"not_found"}`))
	})
	defer done()

	cred, err := store.Get(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("a missing broker credential must not be an error: %v", err)
	}
	if cred.Connected() {
		t.Fatalf("missing credential reported as connected")
	}
}

func TestRemoteStore_NotFoundDropsStaleSnapshot(t *testing.T) {
	t.Parallel()

	store, snaps, done := remoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"not_found"}`))
	})
	defer done()

	// Snapshot from before the credential was removed broker-side.
	snaps.Store(models.PlatformCredential{
		UserID:      "u1",
		Platform:    models.PlatformLinkedIn,
		AccessToken: "stale-token",
	})

	if _, err := store.Get(context.Background(), models.PlatformLinkedIn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := snaps.Load("u1", models.PlatformLinkedIn); ok {
		t.Fatalf("snapshot survived a broker not_found; an outage would resurrect it")
	}
}

func TestRemoteStore_SuccessfulReadWritesSnapshot(t *testing.T) {
	t.Parallel()

	store, snaps, done := remoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"credentials":{"connected":true,"access_token":"tok-1","external_id":"ext-1"}}`))
	})
	defer done()

	cred, err := store.Get(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.AccessToken != "tok-1" || cred.ExternalID != "ext-1" {
		t.Fatalf("wire credential not mapped: %+v", cred)
	}

	snap, ok := snaps.Load("u1", models.PlatformLinkedIn)
	if !ok || snap.AccessToken != "tok-1" {
		t.Fatalf("successful read did not refresh the snapshot")
	}
}

func TestRemoteStore_UnreachableServesSnapshot(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nil)
	server.Close() // connection refused from here on

	client := broker.NewClient(server.URL, 200*time.Millisecond)
	snaps := newMemSnapshotter()
	snaps.Store(models.PlatformCredential{
		UserID:      "u1",
		Platform:    models.PlatformLinkedIn,
		AccessToken: "snapshot-token",
	})
	store := NewRemoteStore(client, NewCache(time.Hour, nil), snaps, "u1")

	cred, err := store.Get(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("expected snapshot fallback, got %v", err)
	}
	if cred.AccessToken != "snapshot-token" {
		t.Fatalf("expected snapshot credential, got %+v", cred)
	}
}

func TestRemoteStore_UnreachableWithoutSnapshotErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nil)
	server.Close()

	client := broker.NewClient(server.URL, 200*time.Millisecond)
	store := NewRemoteStore(client, NewCache(time.Hour, nil), newMemSnapshotter(), "u1")

	_, err := store.Get(context.Background(), models.PlatformLinkedIn)
	if !errors.Is(err, ErrBrokerUnreachable) {
		t.Fatalf("expected ErrBrokerUnreachable, got %v", err)
	}
}

func TestRemoteStore_DeleteDropsSnapshotAndCache(t *testing.T) {
	t.Parallel()

	store, snaps, done := remoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	defer done()

	snaps.Store(models.PlatformCredential{UserID: "u1", Platform: models.PlatformTwitter, AccessToken: "tok"})

	if err := store.Delete(context.Background(), models.PlatformTwitter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := snaps.Load("u1", models.PlatformTwitter); ok {
		t.Fatalf("snapshot survived an explicit disconnect")
	}
}
