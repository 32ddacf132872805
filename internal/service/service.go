// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrNotSubscribed        = errors.New("email is not subscribed")
	ErrFeedbackTooShort     = errors.New("feedback must be at least 3 characters")
	ErrFeedbackTooLong      = errors.New("feedback must be at most 2000 characters")
	ErrInvalidFeedbackEmail = errors.New("invalid email for feedback")
	ErrSendToEmailDisabled  = errors.New("send-to-email is disabled")
	ErrUnknownList          = errors.New("unknown list")
)

// DefaultSubscriberCountOffset is added to the public subscriber count.
const DefaultSubscriberCountOffset = 10
