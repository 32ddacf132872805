package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    int
		message string
		want    Classification
	}{
		{"550 code", 550, "5.1.1 something", Permanent},
		{"553 code", 553, "mailbox name not allowed", Permanent},
		{"559 code", 559, "", Permanent},
		{"mailbox unavailable text", 0, "Requested action not taken: mailbox unavailable", Permanent},
		{"user not found", 0, "User Not Found", Permanent},
		{"no such user", 511, "no such user here", Permanent},
		{"recipient address rejected", 554, "Recipient address rejected: access denied", Permanent},
		{"421 try later", 421, "Service not available, try again later", Transient},
		{"451 greylist", 451, "Greylisted, please retry", Transient},
		{"timeout", 0, "dial tcp: i/o timeout", Transient},
		{"560 outside class", 560, "odd", Transient},
		{"empty", 0, "", Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyFailure(tt.code, tt.message); got != tt.want {
				t.Errorf("ClassifyFailure(%d, %q) = %v, want %v", tt.code, tt.message, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("send: %w", &DeliveryError{Code: 550, Message: "mailbox unavailable"})
	if got := Classify(wrapped); got != Permanent {
		t.Errorf("Classify(wrapped 550) = %v, want permanent", got)
	}

	if got := Classify(context.DeadlineExceeded); got != Transient {
		t.Errorf("Classify(deadline) = %v, want transient", got)
	}

	if got := Classify(errors.New("smtp: no such user")); got != Permanent {
		t.Errorf("Classify(plain error with signature) = %v, want permanent", got)
	}

	if got := Classify(nil); got != Transient {
		t.Errorf("Classify(nil) = %v, want transient", got)
	}
}
