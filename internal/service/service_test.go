package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/quotecast/quotecast/internal/feedback"
	"github.com/quotecast/quotecast/internal/liststore"
	"github.com/quotecast/quotecast/internal/metrics"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/notifier"
	"github.com/quotecast/quotecast/internal/quote"
	"github.com/quotecast/quotecast/internal/scheduler"
	"github.com/quotecast/quotecast/internal/settings"
)

type stubQuotes struct {
	err error
}

func (s *stubQuotes) Random(context.Context) (*model.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Quote{Text: "Stay hungry.", Author: "Someone"}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	tags []model.EmailTag
	to   []string
	err  error
}

func (r *recordingSender) SendQuoteEmail(_ context.Context, tag model.EmailTag, to string, _ model.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tags = append(r.tags, tag)
	r.to = append(r.to, to)
	return nil
}

type fixture struct {
	lists    *liststore.Store
	settings *settings.FileStore
	sender   *recordingSender
	quotes   *stubQuotes
	metrics  *metrics.InMemoryRecorder
	subs     *SubscriptionService
	feedback *FeedbackService
	dash     *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	backend, err := liststore.NewFileBackend(dir, liststore.FileNames{
		Subscribed:   "emails.txt",
		Unsubscribed: "unsubscribed.txt",
		Failed:       "failed.txt",
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		lists:    liststore.New(backend, nil),
		settings: settings.NewFileStore(filepath.Join(dir, "settings.json")),
		sender:   &recordingSender{},
		quotes:   &stubQuotes{},
		metrics:  metrics.NewInMemory(),
	}
	f.subs = NewSubscriptionService(SubscriptionConfig{
		Lists:       f.lists,
		Quotes:      f.quotes,
		Sender:      f.sender,
		Settings:    f.settings,
		CountOffset: DefaultSubscriberCountOffset,
		Metrics:     f.metrics,
	})
	f.feedback = NewFeedbackService(feedback.NewFileStore(filepath.Join(dir, "feedback.jsonl")), f.metrics, nil)

	sched := scheduler.New(f.lists, f.quotes, f.sender, scheduler.Config{}, nil, f.metrics)
	f.dash = NewDashboardService(f.lists, f.settings, f.feedback, sched, nil)
	return f
}

func TestSubscribeUnsubscribeCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	count, err := f.subs.SubscriberCount(ctx)
	if err != nil || count != 10 {
		t.Fatalf("initial count = %d, %v; want 10", count, err)
	}

	added, err := f.subs.Subscribe(ctx, "  new@example.com ")
	if err != nil || !added {
		t.Fatalf("Subscribe = %v, %v", added, err)
	}
	added, err = f.subs.Subscribe(ctx, "new@example.com")
	if err != nil || added {
		t.Fatalf("second Subscribe = %v, %v; want no-op", added, err)
	}

	count, _ = f.subs.SubscriberCount(ctx)
	if count != 11 {
		t.Errorf("count after subscribe = %d, want 11", count)
	}

	if err := f.subs.Unsubscribe(ctx, "new@example.com"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	inSubs, _ := f.lists.Contains(ctx, model.ListSubscribed, "new@example.com")
	inUnsubs, _ := f.lists.Contains(ctx, model.ListUnsubscribed, "new@example.com")
	if inSubs || !inUnsubs {
		t.Errorf("after unsubscribe: subscribed=%v unsubscribed=%v", inSubs, inUnsubs)
	}

	count, _ = f.subs.SubscriberCount(ctx)
	if count != 10 {
		t.Errorf("count after unsubscribe = %d, want 10", count)
	}

	snap := f.metrics.Snapshot()
	if snap.Subscribed != 1 || snap.Unsubscribed != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestSubscribeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, email := range []string{"", "not-an-email", "a@b", "two words@x.com"} {
		if _, err := f.subs.Subscribe(ctx, email); !errors.Is(err, model.ErrInvalidEmail) {
			t.Errorf("Subscribe(%q) error = %v, want ErrInvalidEmail", email, err)
		}
	}

	if err := f.subs.Unsubscribe(ctx, "bad"); !errors.Is(err, model.ErrInvalidEmail) {
		t.Errorf("Unsubscribe(bad) error = %v", err)
	}
	if err := f.subs.Unsubscribe(ctx, "ghost@example.com"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Unsubscribe(ghost) error = %v, want ErrNotSubscribed", err)
	}
}

func TestSendToEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.subs.SendToEmail(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("SendToEmail: %v", err)
	}
	if q.Text == "" {
		t.Error("expected quote in result")
	}
	if len(f.sender.tags) != 1 || f.sender.tags[0] != model.TagPersonal {
		t.Errorf("tags = %v, want [Personal]", f.sender.tags)
	}

	subscribed, _ := f.lists.Contains(ctx, model.ListSubscribed, "me@example.com")
	if subscribed {
		t.Error("send-to-email must not subscribe the address")
	}
}

func TestSendToEmail_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.settings.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := f.subs.SendToEmail(ctx, "me@example.com"); !errors.Is(err, ErrSendToEmailDisabled) {
			t.Errorf("error = %v, want ErrSendToEmailDisabled", err)
		}
	})

	t.Run("invalid_email", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.subs.SendToEmail(ctx, "nope"); !errors.Is(err, model.ErrInvalidEmail) {
			t.Errorf("error = %v, want ErrInvalidEmail", err)
		}
	})

	t.Run("quote_fetch", func(t *testing.T) {
		f := newFixture(t)
		f.quotes.err = &quote.FetchError{StatusCode: 503, Reason: "unexpected status"}

		_, err := f.subs.SendToEmail(ctx, "me@example.com")
		var fe *quote.FetchError
		if !errors.As(err, &fe) {
			t.Errorf("error = %v, want *quote.FetchError", err)
		}
		if f.metrics.Snapshot().QuoteFetchFailures != 1 {
			t.Error("quote failure should be counted")
		}
	})

	t.Run("delivery", func(t *testing.T) {
		f := newFixture(t)
		f.sender.err = &notifier.DeliveryError{Code: 451, Message: "try again later"}

		_, err := f.subs.SendToEmail(ctx, "me@example.com")
		var de *notifier.DeliveryError
		if !errors.As(err, &de) || de.Code != 451 {
			t.Errorf("error = %v, want *notifier.DeliveryError", err)
		}
	})
}

func TestFeedbackSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		email   string
		wantErr error
	}{
		{"too_short", "hi", "", ErrFeedbackTooShort},
		{"whitespace_padded", "  hi  ", "", ErrFeedbackTooShort},
		{"too_long", strings.Repeat("<", maxFeedbackLength+1), "", ErrFeedbackTooLong},
		{"bad_email", "great service!", "nope", ErrInvalidFeedbackEmail},
		{"ok", "great service!", "", nil},
		{"ok_with_email", "love it", "fan@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.feedback.Submit(ctx, tt.message, tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	recent, err := f.feedback.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Message != "love it" {
		t.Errorf("recent = %+v", recent)
	}
	if f.metrics.Snapshot().FeedbackReceived != 2 {
		t.Error("feedback metric should count stored entries only")
	}
}

func TestDashboardOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.dash.Add(ctx, "Subscribed", "a@example.com"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := f.dash.Add(ctx, "bogus", "a@example.com"); !errors.Is(err, ErrUnknownList) {
		t.Errorf("Add to unknown list error = %v, want ErrUnknownList", err)
	}

	result, err := f.dash.BulkAdd(ctx, "subscribed", "a@example.com, b@example.com\nbad\nc@example.com")
	if err != nil {
		t.Fatalf("BulkAdd: %v", err)
	}
	if len(result.Applied) != 2 || len(result.Skipped) != 1 || len(result.Invalid) != 1 {
		t.Errorf("BulkAdd result = %+v", result)
	}

	if _, err := f.dash.BulkDelete(ctx, "subscribed", "b@example.com,c@example.com"); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if err := f.dash.Delete(ctx, "failed", "absent@example.com"); err != nil {
		t.Errorf("Delete of absent address should be a no-op, got %v", err)
	}

	updated, err := f.dash.ToggleSendToEmail(ctx)
	if err != nil || updated.ShowSendToEmail {
		t.Fatalf("Toggle = %+v, %v", updated, err)
	}

	if _, err := f.feedback.Submit(ctx, "nice one", ""); err != nil {
		t.Fatal(err)
	}

	view, err := f.dash.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if got := view.Lists[model.ListSubscribed]; len(got) != 1 || got[0] != "a@example.com" {
		t.Errorf("subscribed = %v", got)
	}
	if view.Settings.ShowSendToEmail {
		t.Error("view should reflect toggled setting")
	}
	if len(view.Feedback) != 1 {
		t.Errorf("feedback = %v", view.Feedback)
	}
	if view.NextRun.IsZero() {
		t.Error("next run should be set when a scheduler is configured")
	}
}

func TestDashboardRunNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.subs.Subscribe(ctx, "a@example.com"); err != nil {
		t.Fatal(err)
	}

	report, err := f.dash.RunNow(ctx)
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if report.Sent != 1 || f.sender.tags[0] != model.TagManual {
		t.Errorf("report = %+v, tags = %v", report, f.sender.tags)
	}

	noRunner := NewDashboardService(f.lists, f.settings, nil, nil, nil)
	if _, err := noRunner.RunNow(ctx); err == nil {
		t.Error("RunNow without scheduler should fail")
	}
}
