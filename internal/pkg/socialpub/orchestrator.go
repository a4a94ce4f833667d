package socialpub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

// MediaResolver turns an opaque media handle into a publicly fetchable URL.
// Implemented by the media store; adapters must never see a local handle.
type MediaResolver interface {
	Resolve(ctx context.Context, handle string) (string, error)
}

// Orchestrator runs one user's multi-platform publishes.
type Orchestrator struct {
	store    credentials.Store
	adapters map[models.Platform]Adapter
	media    MediaResolver
	timeout  time.Duration
}

// NewOrchestrator assembles an orchestrator from a credential store, the
// platform adapters and an optional media resolver.
func NewOrchestrator(store credentials.Store, adapters []Adapter, media MediaResolver, timeout time.Duration) *Orchestrator {
	byPlatform := make(map[models.Platform]Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &Orchestrator{
		store:    store,
		adapters: byPlatform,
		media:    media,
		timeout:  timeout,
	}
}

// Publish fans the content map out to the platforms. Media is resolved once
// and shared; a failed upload degrades to a content-only publish instead of
// aborting the call. Platforms run concurrently and independently; the
// summary is success when at least one platform succeeded.
func (o *Orchestrator) Publish(ctx context.Context, contentMap ContentMap, mediaHandle string) Summary {
	mediaURL, uploadFailed := o.resolveMedia(ctx, mediaHandle)

	platforms := make([]models.Platform, 0, len(contentMap))
	for _, platform := range models.AllPlatforms() {
		if content, ok := contentMap[platform]; ok && content != "" {
			platforms = append(platforms, platform)
		}
	}

	results := make([]Result, len(platforms))
	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()
			results[i] = o.publishOne(ctx, platform, contentMap[platform], mediaURL, uploadFailed)
		}(i, platform)
	}
	wg.Wait()

	return summarize(results)
}

// PublishOne re-invokes a single platform's adapter, bypassing any
// already-published short-circuit. Used for pushing edited content.
func (o *Orchestrator) PublishOne(ctx context.Context, platform models.Platform, content, mediaHandle string) Result {
	mediaURL, uploadFailed := o.resolveMedia(ctx, mediaHandle)
	return o.publishOne(ctx, platform, content, mediaURL, uploadFailed)
}

func (o *Orchestrator) resolveMedia(ctx context.Context, handle string) (mediaURL string, uploadFailed bool) {
	if handle == "" {
		return "", false
	}
	if o.media == nil {
		log.Warnf("no media resolver configured, publishing without media")
		return "", true
	}
	resolved, err := o.media.Resolve(ctx, handle)
	if err != nil {
		log.Warnf("media upload failed, publishing without media: %v", err)
		return "", true
	}
	return resolved, false
}

// publishOne isolates a single platform call: connection check, bounded
// timeout, panic containment, and error classification.
func (o *Orchestrator) publishOne(ctx context.Context, platform models.Platform, content, mediaURL string, uploadFailed bool) (result Result) {
	result = Result{Platform: platform}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("publish adapter for %s panicked: %v", platform, r)
			result = Result{
				Platform:  platform,
				Success:   false,
				Message:   fmt.Sprintf("adapter panic: %v", r),
				ErrorKind: ErrorUpstream,
			}
		}
	}()

	adapter, ok := o.adapters[platform]
	if !ok {
		result.Message = "no adapter registered"
		result.ErrorKind = ErrorUpstream
		return result
	}

	if !o.store.IsConnected(ctx, platform) {
		result.Message = "platform not connected"
		result.ErrorKind = ErrorNotConnected
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := adapter.Publish(callCtx, content, mediaURL); err != nil {
		result.Message = err.Error()
		result.ErrorKind = classify(err)
		if result.ErrorKind == ErrorUploadFailed && !uploadFailed {
			// The adapter demands media but none was ever staged; that is a
			// caller mistake, not an upload failure.
			result.ErrorKind = ErrorUpstream
		}
		return result
	}

	result.Success = true
	return result
}

func summarize(results []Result) Summary {
	summary := Summary{
		Total:   len(results),
		Results: results,
	}
	if summary.Results == nil {
		summary.Results = []Result{}
	}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	summary.Success = summary.Successful > 0
	return summary
}
