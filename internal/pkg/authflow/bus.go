package authflow

import (
	"sync"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// RedirectBus delivers out-of-band completion messages to waiting linking
// attempts. The callback route publishes the final redirect URL here; the
// coordinator races the delivery against the surface's own result.
//
// Subscriptions are scoped to one attempt and must be released on every exit
// path; a publish with no subscriber is dropped silently, which is exactly
// what a stale callback after a timeout should do.
type RedirectBus struct {
	mu   sync.Mutex
	next int
	subs map[models.Platform]map[int]chan string
}

// NewRedirectBus creates an empty bus.
func NewRedirectBus() *RedirectBus {
	return &RedirectBus{subs: make(map[models.Platform]map[int]chan string)}
}

// Subscribe registers for redirect URLs of one platform. The returned cancel
// function is idempotent and safe to call from a defer.
func (b *RedirectBus) Subscribe(platform models.Platform) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, 1)
	id := b.next
	b.next++

	if b.subs[platform] == nil {
		b.subs[platform] = make(map[int]chan string)
	}
	b.subs[platform][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[platform], id)
	}
	return ch, cancel
}

// Publish hands a redirect URL to every waiting attempt for the platform.
// Channels are buffered with one slot; an attempt that already resolved
// simply never reads the message.
func (b *RedirectBus) Publish(platform models.Platform, redirectURL string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[platform] {
		select {
		case ch <- redirectURL:
		default:
		}
	}
}

// HasSubscriber reports whether any attempt is currently waiting for the
// platform. The callback route uses this to tell the user when no linking
// attempt is active anymore.
func (b *RedirectBus) HasSubscriber(platform models.Platform) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[platform]) > 0
}
