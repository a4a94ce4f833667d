// Package socialpub fans generated content out to the linked social
// platforms. Failures are isolated per platform: one missing credential or
// broken upstream never blocks the other platforms in the same call.
package socialpub

import (
	"errors"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// ContentMap maps platform to the text to publish there. An absent key means
// "do not publish to this platform". Builders must never include a platform
// whose generation toggle is disabled.
type ContentMap map[models.Platform]string

// ErrorKind classifies a per-platform publish failure.
type ErrorKind string

const (
	ErrorNotConnected     ErrorKind = "not_connected"
	ErrorDuplicateContent ErrorKind = "duplicate_content"
	ErrorUpstream         ErrorKind = "upstream_error"
	ErrorUploadFailed     ErrorKind = "upload_failed"
)

// Result is the outcome for a single platform.
type Result struct {
	Platform  models.Platform `json:"platform"`
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
}

// Summary aggregates one publish call. Success means at least one platform
// went through; partial failure is an expected, reportable state, not an
// error.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Success    bool     `json:"success"`
	Results    []Result `json:"results"`
}

// ErrNotConnected is returned by adapters when no usable credential exists
// at call time.
var ErrNotConnected = errors.New("platform not connected")

// ErrMediaRequired is returned by adapters that cannot publish without an
// image when none is available.
var ErrMediaRequired = errors.New("platform requires an image")
