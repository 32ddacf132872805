// Package scheduler runs the daily quote mailing.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/notifier"
	"github.com/quotecast/quotecast/internal/quote"
)

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("daily run already in progress")

// ListStore is the list access the daily run needs.
type ListStore interface {
	Exists(ctx context.Context, list model.ListName) (bool, error)
	Load(ctx context.Context, list model.ListName) ([]string, error)
	Remove(ctx context.Context, list model.ListName, address string) (bool, error)
	Record(ctx context.Context, list model.ListName, address string) error
}

// Sender delivers one quote email.
type Sender interface {
	SendQuoteEmail(ctx context.Context, tag model.EmailTag, to string, q model.Quote) error
}

// Config controls when the run fires and how quotes are fetched.
type Config struct {
	At       Clock
	Location *time.Location
	// SharedQuote fetches one quote per run instead of one per recipient.
	SharedQuote bool
}

// RunReport summarises one run.
type RunReport struct {
	Tag       model.EmailTag `json:"tag"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
	// NoList is set when the subscribed list has never been written.
	NoList    bool `json:"noList"`
	Attempted int  `json:"attempted"`
	Sent      int  `json:"sent"`
	Permanent int  `json:"permanent"`
	Transient int  `json:"transient"`
	Skipped   int  `json:"skipped"`
}

// Scheduler fires the daily run once per day at a fixed local time.
// Missed days are not caught up.
type Scheduler struct {
	store   ListStore
	quotes  quote.Source
	sender  Sender
	cfg     Config
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	runMu sync.Mutex
}

// New creates a Scheduler.
func New(store ListStore, quotes quote.Source, sender Sender, cfg Config, logger *slog.Logger, recorder metrics.Recorder) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Scheduler{
		store:   store,
		quotes:  quotes,
		sender:  sender,
		cfg:     cfg,
		logger:  logger.With("component", "scheduler"),
		metrics: recorder,
		now:     time.Now,
	}
}

// NextRun returns the next scheduled fire time after now.
func (s *Scheduler) NextRun() time.Time {
	return NextRun(s.now(), s.cfg.At, s.cfg.Location)
}

// Run blocks, firing RunOnce at each scheduled time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		slog.String("at", s.cfg.At.String()),
		slog.String("timezone", s.cfg.Location.String()),
		slog.Bool("shared_quote", s.cfg.SharedQuote),
	)

	for {
		next := s.NextRun()
		wait := next.Sub(s.now())
		s.logger.Info("next daily run scheduled", slog.Time("at", next), slog.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping")
			return nil
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			s.logger.Error("daily run failed", "error", err)
		}
	}
}

// RunOnce performs one daily run. A failure for one recipient never stops
// the loop; only list read errors and cancellation end the run early.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, model.TagDaily)
}

// RunNow performs an operator-triggered run, tagged Manual.
func (s *Scheduler) RunNow(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, model.TagManual)
}

func (s *Scheduler) run(ctx context.Context, tag model.EmailTag) (*RunReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	report := &RunReport{Tag: tag, StartedAt: s.now()}
	defer func() {
		report.Duration = s.now().Sub(report.StartedAt)
		s.metrics.ObserveScheduledRun(report.Duration, report.Attempted, report.Sent)
		s.logger.Info("daily run finished",
			slog.String("tag", string(report.Tag)),
			slog.Bool("no_list", report.NoList),
			slog.Int("attempted", report.Attempted),
			slog.Int("sent", report.Sent),
			slog.Int("permanent", report.Permanent),
			slog.Int("transient", report.Transient),
			slog.Int("skipped", report.Skipped),
			slog.Duration("duration", report.Duration),
		)
	}()

	exists, err := s.store.Exists(ctx, model.ListSubscribed)
	if err != nil {
		return report, err
	}
	if !exists {
		report.NoList = true
		s.logger.Info("no subscribed list, skipping daily run")
		return report, nil
	}

	recipients, err := s.store.Load(ctx, model.ListSubscribed)
	if err != nil {
		return report, err
	}
	recipients = unique(recipients)

	var shared *model.Quote
	if s.cfg.SharedQuote && len(recipients) > 0 {
		shared, err = s.quotes.Random(ctx)
		if err != nil {
			s.metrics.IncQuoteFetchFailed()
			s.logger.Error("quote fetch failed, skipping run", "error", err)
			report.Skipped = len(recipients)
			return report, nil
		}
	}

	for _, addr := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.deliver(ctx, tag, addr, shared, report)
	}

	return report, nil
}

// deliver handles one recipient and updates report.
func (s *Scheduler) deliver(ctx context.Context, tag model.EmailTag, addr string, shared *model.Quote, report *RunReport) {
	q := shared
	if q == nil {
		fetched, err := s.quotes.Random(ctx)
		if err != nil {
			s.metrics.IncQuoteFetchFailed()
			s.logger.Warn("quote fetch failed, skipping recipient",
				slog.String("to", model.RedactEmail(addr)),
				slog.String("error", err.Error()),
			)
			report.Skipped++
			return
		}
		q = fetched
	}

	report.Attempted++
	err := s.sender.SendQuoteEmail(ctx, tag, addr, *q)
	if err == nil {
		report.Sent++
		return
	}

	switch notifier.Classify(err) {
	case notifier.Permanent:
		report.Permanent++
		if _, rmErr := s.store.Remove(ctx, model.ListSubscribed, addr); rmErr != nil {
			s.logger.Error("failed to remove bounced address",
				slog.String("to", model.RedactEmail(addr)),
				slog.String("error", rmErr.Error()),
			)
		}
	default:
		report.Transient++
	}

	if recErr := s.store.Record(ctx, model.ListFailed, addr); recErr != nil {
		s.logger.Error("failed to record failed address",
			slog.String("to", model.RedactEmail(addr)),
			slog.String("error", recErr.Error()),
		)
	}
}

func unique(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
