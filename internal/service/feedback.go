package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quotecast/quotecast/internal/feedback"
	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/model"
)

const (
	minFeedbackLength = 3
	maxFeedbackLength = 2000
)

// FeedbackService validates and stores feedback.
type FeedbackService struct {
	store   feedback.Store
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(store feedback.Store, recorder metrics.Recorder, logger *slog.Logger) *FeedbackService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{
		store:   store,
		metrics: recorder,
		logger:  logger.With("component", "feedback"),
		now:     time.Now,
	}
}

// Submit validates and stores one feedback message. userEmail is optional
// but must be valid when present.
func (s *FeedbackService) Submit(ctx context.Context, message, userEmail string) (*model.Feedback, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) < minFeedbackLength {
		return nil, ErrFeedbackTooShort
	}
	if utf8.RuneCountInString(message) > maxFeedbackLength {
		return nil, ErrFeedbackTooLong
	}

	userEmail = strings.TrimSpace(userEmail)
	if userEmail != "" && !model.IsValidEmail(userEmail) {
		return nil, ErrInvalidFeedbackEmail
	}

	entry := feedback.NewEntry(message, userEmail, s.now())
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, err
	}

	s.metrics.IncFeedbackReceived()
	s.logger.Info("feedback received",
		slog.String("id", entry.ID),
		slog.Int("length", len(entry.Message)),
		slog.String("email", model.RedactEmail(entry.UserEmail)),
	)
	return entry, nil
}

// Recent returns the latest feedback entries, newest first.
func (s *FeedbackService) Recent(ctx context.Context, limit int) ([]model.Feedback, error) {
	return s.store.Recent(ctx, limit)
}
