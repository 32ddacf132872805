// Package feedback stores messages submitted from the public page.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quotecast/quotecast/internal/model"
)

// Store appends feedback entries and lists the most recent ones.
type Store interface {
	Save(ctx context.Context, entry *model.Feedback) error
	Recent(ctx context.Context, limit int) ([]model.Feedback, error)
}

// NewEntry builds a feedback entry with a fresh ULID.
func NewEntry(message, userEmail string, now time.Time) *model.Feedback {
	return &model.Feedback{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Message:   strings.TrimSpace(message),
		UserEmail: strings.TrimSpace(userEmail),
		CreatedAt: now.UTC(),
	}
}
