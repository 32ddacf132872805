package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quotecast/quotecast/internal/handler/dto"
	"github.com/quotecast/quotecast/internal/model"
	"github.com/quotecast/quotecast/internal/notifier"
	"github.com/quotecast/quotecast/internal/quote"
	"github.com/quotecast/quotecast/internal/service"
)

// APIHandler handles the public JSON API.
type APIHandler struct {
	subs     *service.SubscriptionService
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(subs *service.SubscriptionService, feedback *service.FeedbackService, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		subs:     subs,
		feedback: feedback,
		logger:   logger,
	}
}

// Quote handles GET /api/quote.
func (h *APIHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.subs.RandomQuote(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch quote")
		return
	}
	writeJSON(w, http.StatusOK, dto.QuoteResponse{Quote: *q})
}

// Subscribe handles POST /api/subscribe.
func (h *APIHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	added, err := h.subs.Subscribe(r.Context(), req.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status := "Subscribed successfully"
	if !added {
		status = "Already subscribed"
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: status})
}

// Unsubscribe handles POST /api/unsubscribe.
func (h *APIHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.subs.Unsubscribe(r.Context(), req.Email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "Unsubscribed successfully"})
}

// SendToEmail handles POST /api/send-to-email.
func (h *APIHandler) SendToEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	q, err := h.subs.SendToEmail(r.Context(), req.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SendToEmailResponse{Status: "Quote sent", Quote: *q})
}

// SubscriberCount handles GET /api/subscriber-count.
func (h *APIHandler) SubscriberCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.subs.SubscriberCount(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CountResponse{Count: count})
}

// Settings handles GET /api/settings.
func (h *APIHandler) Settings(w http.ResponseWriter, r *http.Request) {
	current, err := h.subs.Settings(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// Feedback handles POST /api/feedback.
func (h *APIHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req dto.FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.feedback.Submit(r.Context(), req.Feedback, req.UserEmail); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "Thanks for your feedback!"})
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses.
func (h *APIHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *quote.FetchError
	var deliveryErr *notifier.DeliveryError

	switch {
	case errors.Is(err, model.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Invalid email address")
	case errors.Is(err, service.ErrFeedbackTooShort):
		writeError(w, http.StatusBadRequest, "Feedback must be at least 3 characters")
	case errors.Is(err, service.ErrFeedbackTooLong):
		writeError(w, http.StatusBadRequest, "Feedback must be at most 2000 characters")
	case errors.Is(err, service.ErrInvalidFeedbackEmail):
		writeError(w, http.StatusBadRequest, "Invalid email address")
	case errors.Is(err, service.ErrNotSubscribed):
		writeError(w, http.StatusNotFound, "Email is not subscribed")
	case errors.Is(err, service.ErrSendToEmailDisabled):
		writeError(w, http.StatusForbidden, "Sending to email is currently disabled")
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusInternalServerError, "Failed to fetch quote")
	case errors.As(err, &deliveryErr):
		h.logger.Error("interactive send failed",
			slog.String("path", r.URL.Path),
			slog.Int("code", deliveryErr.Code),
			slog.String("error", deliveryErr.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
	default:
		h.logger.Error("unexpected service error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
