package socialpub

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "not connected", err: ErrNotConnected, want: ErrorNotConnected},
		{name: "wrapped not connected", err: fmt.Errorf("checking: %w", ErrNotConnected), want: ErrorNotConnected},
		{name: "media required", err: ErrMediaRequired, want: ErrorUploadFailed},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorUpstream},
		{name: "linkedin duplicate", err: errors.New("linkedin publish failed with status 422: DUPLICATE_POST rejected"), want: ErrorDuplicateContent},
		{name: "twitter duplicate", err: errors.New("twitter: You are not allowed to create a Tweet with duplicate content."), want: ErrorDuplicateContent},
		{name: "twitter v1 duplicate", err: errors.New("Status is a duplicate"), want: ErrorDuplicateContent},
		{name: "plain upstream failure", err: errors.New("500 internal server error"), want: ErrorUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Fatalf("classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
