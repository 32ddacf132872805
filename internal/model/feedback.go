package model

import "time"

// Feedback is a free-text message submitted from the public page.
type Feedback struct {
	ID        string    `json:"id"`
	Message   string    `json:"feedback"`
	UserEmail string    `json:"userEmail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
