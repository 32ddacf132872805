// Package dto holds the JSON request and response bodies of the public API.
package dto

import "github.com/quotecast/quotecast/internal/model"

// EmailRequest is the body of subscribe, unsubscribe and send-to-email.
type EmailRequest struct {
	Email string `json:"email"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Feedback  string `json:"feedback"`
	UserEmail string `json:"userEmail,omitempty"`
}

// StatusResponse carries a human-readable outcome.
type StatusResponse struct {
	Status string `json:"status"`
}

// QuoteResponse wraps one quote.
type QuoteResponse struct {
	Quote model.Quote `json:"quote"`
}

// SendToEmailResponse is returned after a personal quote email is sent.
type SendToEmailResponse struct {
	Status string      `json:"status"`
	Quote  model.Quote `json:"quote"`
}

// CountResponse is returned by GET /api/subscriber-count.
type CountResponse struct {
	Count int `json:"count"`
}
