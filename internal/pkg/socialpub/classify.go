package socialpub

import (
	"context"
	"errors"
	"strings"
)

// duplicateSignatures are the upstream error fragments that identify a
// duplicate-content rejection. Matching on provider error text is fragile;
// keeping every known fragment in one place means orchestration logic never
// changes when a provider reworks its wording.
var duplicateSignatures = []string{
	"DUPLICATE_POST",        // LinkedIn ugcPosts
	"duplicate content",     // Twitter v2
	"Status is a duplicate", // Twitter v1 wording, still seen in proxies
}

// classify maps an adapter error to the per-platform error kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotConnected):
		return ErrorNotConnected
	case errors.Is(err, ErrMediaRequired):
		return ErrorUploadFailed
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorUpstream
	case isDuplicateContent(err):
		return ErrorDuplicateContent
	default:
		return ErrorUpstream
	}
}

func isDuplicateContent(err error) bool {
	msg := err.Error()
	for _, sig := range duplicateSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
