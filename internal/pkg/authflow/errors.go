package authflow

import (
	"errors"
	"fmt"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// Kind classifies how a linking attempt ended.
type Kind string

const (
	// KindStateMismatch: the callback carried a state that does not match the
	// nonce issued for this attempt. Nothing past this point runs; the code
	// is never exchanged.
	KindStateMismatch Kind = "state_mismatch"
	// KindTimeout: no completion signal arrived inside the authorization
	// window.
	KindTimeout Kind = "timeout"
	// KindCancelled: the user closed the authorization surface or a newer
	// attempt superseded this one. Not presented as a failure.
	KindCancelled Kind = "cancelled"
	// KindMissingCode: the callback arrived without a code and without an
	// explicit cancellation signal.
	KindMissingCode Kind = "missing_code"
	// KindProviderDenied: the provider rejected the request and said why.
	KindProviderDenied Kind = "provider_denied"
)

// Error is a terminal failure of one linking attempt.
type Error struct {
	Kind        Kind
	Platform    models.Platform
	Description string
}

func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization %s for %s: %s", e.Kind, e.Platform, e.Description)
	}
	return fmt.Sprintf("authorization %s for %s", e.Kind, e.Platform)
}

// IsKind reports whether err is an authorization error of the given kind.
func IsKind(err error, kind Kind) bool {
	var authErr *Error
	return errors.As(err, &authErr) && authErr.Kind == kind
}

func newError(kind Kind, platform models.Platform, description string) *Error {
	return &Error{Kind: kind, Platform: platform, Description: description}
}
