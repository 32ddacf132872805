package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/quotecast/quotecast/internal/auth"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/scheduler"
	"github.com/quotecast/quotecast/internal/service"
)

// DashboardHandler serves the session-gated dashboard. Every mutation
// redirects back to the dashboard; failures are only logged.
type DashboardHandler struct {
	pages  *Pages
	svc    *service.DashboardService
	runCtx context.Context
	runs   sync.WaitGroup
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler. runCtx bounds
// background runs started from the dashboard.
func NewDashboardHandler(runCtx context.Context, pages *Pages, svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		pages:  pages,
		svc:    svc,
		runCtx: runCtx,
		logger: logger,
	}
}

type dashboardList struct {
	Name    model.ListName
	Title   string
	Entries []string
}

type dashboardPage struct {
	Lists          []dashboardList
	Settings       model.Settings
	Feedback       []model.Feedback
	NextRun        time.Time
	SessionExpires time.Time
}

// Show handles GET /dashboard.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := dashboardPage{
		Settings: view.Settings,
		Feedback: view.Feedback,
		NextRun:  view.NextRun,
	}
	for _, name := range model.AllLists {
		page.Lists = append(page.Lists, dashboardList{
			Name:    name,
			Title:   name.Title(),
			Entries: view.Lists[name],
		})
	}
	if s := auth.SessionFromContext(r.Context()); s != nil {
		page.SessionExpires = s.ExpiresAt
	}

	h.pages.render(w, http.StatusOK, "dashboard.html", page)
}

// Add handles POST /dashboard/add.
func (h *DashboardHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "add", func(ctx context.Context) error {
		return h.svc.Add(ctx, r.PostForm.Get("list"), r.PostForm.Get("email"))
	})
}

// Delete handles POST /dashboard/delete.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "delete", func(ctx context.Context) error {
		return h.svc.Delete(ctx, r.PostForm.Get("list"), r.PostForm.Get("email"))
	})
}

// BulkAdd handles POST /dashboard/bulkadd.
func (h *DashboardHandler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "bulkadd", func(ctx context.Context) error {
		_, err := h.svc.BulkAdd(ctx, r.PostForm.Get("list"), r.PostForm.Get("emails"))
		return err
	})
}

// BulkDelete handles POST /dashboard/bulkdelete.
func (h *DashboardHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "bulkdelete", func(ctx context.Context) error {
		_, err := h.svc.BulkDelete(ctx, r.PostForm.Get("list"), r.PostForm.Get("emails"))
		return err
	})
}

// ToggleSendToEmail handles POST /dashboard/toggle-send-to-email.
func (h *DashboardHandler) ToggleSendToEmail(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "toggle-send-to-email", func(ctx context.Context) error {
		_, err := h.svc.ToggleSendToEmail(ctx)
		return err
	})
}

// RunNow handles POST /dashboard/run-now. The run continues in the
// background after the redirect.
func (h *DashboardHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		report, err := h.svc.RunNow(h.runCtx)
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			h.logger.Warn("run-now ignored, a run is already in progress")
		case err != nil:
			h.logger.Error("run-now failed", "error", err)
		default:
			h.logger.Info("run-now finished", slog.Int("sent", report.Sent), slog.Int("attempted", report.Attempted))
		}
	}()
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Wait blocks until every run started by RunNow has returned or ctx ends.
func (h *DashboardHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for dashboard runs: %w", ctx.Err())
	}
}

func (h *DashboardHandler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) error) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("dashboard form parse failed", slog.String("op", op), slog.String("error", err.Error()))
	} else if err := fn(r.Context()); err != nil {
		h.logger.Warn("dashboard operation failed",
			slog.String("op", op),
			slog.String("list", r.PostForm.Get("list")),
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}
