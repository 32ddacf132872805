package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quotecast/quotecast/internal/liststore"
	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/quote"
	"github.com/quotecast/quotecast/internal/settings"
)

// Sender delivers one quote email.
type Sender interface {
	SendQuoteEmail(ctx context.Context, tag model.EmailTag, to string, q model.Quote) error
}

// SubscriptionService handles the public list and quote operations.
type SubscriptionService struct {
	lists       *liststore.Store
	quotes      quote.Source
	sender      Sender
	settings    settings.Store
	countOffset int
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// SubscriptionConfig holds the dependencies of a SubscriptionService.
type SubscriptionConfig struct {
	Lists       *liststore.Store
	Quotes      quote.Source
	Sender      Sender
	Settings    settings.Store
	CountOffset int
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(cfg SubscriptionConfig) *SubscriptionService {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SubscriptionService{
		lists:       cfg.Lists,
		quotes:      cfg.Quotes,
		sender:      cfg.Sender,
		settings:    cfg.Settings,
		countOffset: cfg.CountOffset,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.With("component", "subscription"),
	}
}

// Subscribe adds email to the subscribed list. Returns false when the
// address was already subscribed.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (bool, error) {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return false, err
	}

	added, err := s.lists.Add(ctx, model.ListSubscribed, email)
	if err != nil {
		return false, err
	}
	if added {
		s.metrics.IncSubscribed()
		s.logger.Info("subscribed", slog.String("email", model.RedactEmail(email)))
	}
	return added, nil
}

// Unsubscribe records email on the unsubscribed list, then removes it from
// the subscribed list. The two writes are independent.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, email string) error {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return err
	}

	subscribed, err := s.lists.Contains(ctx, model.ListSubscribed, email)
	if err != nil {
		return err
	}
	if !subscribed {
		return ErrNotSubscribed
	}

	if _, err := s.lists.Add(ctx, model.ListUnsubscribed, email); err != nil {
		return err
	}
	if _, err := s.lists.Remove(ctx, model.ListSubscribed, email); err != nil {
		return err
	}

	s.metrics.IncUnsubscribed()
	s.logger.Info("unsubscribed", slog.String("email", model.RedactEmail(email)))
	return nil
}

// SendToEmail mails a fresh quote to one address, tagged Personal.
// The address is not added to any list.
func (s *SubscriptionService) SendToEmail(ctx context.Context, email string) (*model.Quote, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !current.ShowSendToEmail {
		return nil, ErrSendToEmailDisabled
	}

	email, err = model.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	q, err := s.RandomQuote(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.sender.SendQuoteEmail(ctx, model.TagPersonal, email, *q); err != nil {
		return nil, fmt.Errorf("send quote: %w", err)
	}
	return q, nil
}

// RandomQuote fetches one quote from the provider.
func (s *SubscriptionService) RandomQuote(ctx context.Context) (*model.Quote, error) {
	q, err := s.quotes.Random(ctx)
	if err != nil {
		s.metrics.IncQuoteFetchFailed()
		s.logger.Warn("quote fetch failed", "error", err)
		return nil, err
	}
	return q, nil
}

// SubscriberCount returns the subscribed list length plus the display
// offset.
func (s *SubscriptionService) SubscriberCount(ctx context.Context) (int, error) {
	n, err := s.lists.Count(ctx, model.ListSubscribed)
	if err != nil {
		return 0, err
	}
	return n + s.countOffset, nil
}

// Settings returns the current UI settings.
func (s *SubscriptionService) Settings(ctx context.Context) (model.Settings, error) {
	return s.settings.Get(ctx)
}
