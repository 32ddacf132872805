package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quotecast/quotecast/internal/liststore"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/scheduler"
	"github.com/quotecast/quotecast/internal/settings"
)

// recentFeedbackLimit caps feedback shown on the dashboard.
const recentFeedbackLimit = 20

// Runner triggers an out-of-schedule run.
type Runner interface {
	RunNow(ctx context.Context) (*scheduler.RunReport, error)
	NextRun() time.Time
}

// DashboardView is everything the dashboard page renders.
type DashboardView struct {
	Lists    map[model.ListName][]string
	Settings model.Settings
	Feedback []model.Feedback
	NextRun  time.Time
}

// DashboardService implements the operator list and settings operations.
type DashboardService struct {
	lists    *liststore.Store
	settings settings.Store
	feedback *FeedbackService
	runner   Runner
	logger   *slog.Logger
}

// NewDashboardService creates a new DashboardService. feedback and runner
// may be nil.
func NewDashboardService(lists *liststore.Store, st settings.Store, fb *FeedbackService, runner Runner, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		lists:    lists,
		settings: st,
		feedback: fb,
		runner:   runner,
		logger:   logger.With("component", "dashboard"),
	}
}

// View loads every list, the settings and recent feedback.
func (s *DashboardService) View(ctx context.Context) (*DashboardView, error) {
	view := &DashboardView{Lists: make(map[model.ListName][]string, len(model.AllLists))}

	for _, list := range model.AllLists {
		entries, err := s.lists.Load(ctx, list)
		if err != nil {
			return nil, err
		}
		view.Lists[list] = entries
	}

	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	view.Settings = current

	if s.feedback != nil {
		recent, err := s.feedback.Recent(ctx, recentFeedbackLimit)
		if err != nil {
			s.logger.Warn("failed to load feedback", "error", err)
		}
		view.Feedback = recent
	}
	if s.runner != nil {
		view.NextRun = s.runner.NextRun()
	}
	return view, nil
}

// Add adds one address to a list.
func (s *DashboardService) Add(ctx context.Context, list, email string) error {
	name, err := parseList(list)
	if err != nil {
		return err
	}
	added, err := s.lists.Add(ctx, name, email)
	if err != nil {
		return err
	}
	s.logger.Info("dashboard add",
		slog.String("list", string(name)),
		slog.String("email", model.RedactEmail(email)),
		slog.Bool("added", added),
	)
	return nil
}

// Delete removes one address from a list.
func (s *DashboardService) Delete(ctx context.Context, list, email string) error {
	name, err := parseList(list)
	if err != nil {
		return err
	}
	removed, err := s.lists.Remove(ctx, name, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	s.logger.Info("dashboard delete",
		slog.String("list", string(name)),
		slog.String("email", model.RedactEmail(email)),
		slog.Bool("removed", removed),
	)
	return nil
}

// BulkAdd adds every valid address in raw to a list.
func (s *DashboardService) BulkAdd(ctx context.Context, list, raw string) (*liststore.BulkResult, error) {
	name, err := parseList(list)
	if err != nil {
		return nil, err
	}
	return s.lists.BulkAdd(ctx, name, raw)
}

// BulkDelete removes every address in raw from a list.
func (s *DashboardService) BulkDelete(ctx context.Context, list, raw string) (*liststore.BulkResult, error) {
	name, err := parseList(list)
	if err != nil {
		return nil, err
	}
	return s.lists.BulkRemove(ctx, name, raw)
}

// ToggleSendToEmail flips the send-to-email setting.
func (s *DashboardService) ToggleSendToEmail(ctx context.Context) (model.Settings, error) {
	updated, err := s.settings.Toggle(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	s.logger.Info("settings toggled", slog.Bool("show_send_to_email", updated.ShowSendToEmail))
	return updated, nil
}

// RunNow triggers an immediate send to every subscriber.
func (s *DashboardService) RunNow(ctx context.Context) (*scheduler.RunReport, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("run now: no scheduler configured")
	}
	return s.runner.RunNow(ctx)
}

func parseList(raw string) (model.ListName, error) {
	name, err := model.ParseListName(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownList, raw)
	}
	return name, nil
}
