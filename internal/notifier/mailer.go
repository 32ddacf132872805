// Package notifier composes quote emails and delivers them through a
// pluggable mail transport.
package notifier

import (
	"context"
	"fmt"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string // Plain text fallback
}

// Mailer is the interface for mail transports.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError carries the relay's response for a failed send.
type DeliveryError struct {
	// Code is the relay response code, or 0 when the failure happened
	// before the relay answered.
	Code    int
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("delivery failed: %d %s", e.Code, e.Message)
	}
	return "delivery failed: " + e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
