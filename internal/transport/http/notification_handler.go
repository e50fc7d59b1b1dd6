package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/medagenda/syncengine/internal/core/app"
	"github.com/medagenda/syncengine/internal/core/domain"
)

type NotificationHandler struct {
	dispatcher *app.Dispatcher
	logger     *slog.Logger
}

func NewNotificationHandler(dispatcher *app.Dispatcher, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		logger:     logger.With("handler", "notification"),
	}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/notifications/{notificationID}/resend", h.handleResend)
	r.Post("/messaging/authenticate", h.handleAuthenticate)
}

func (h *NotificationHandler) handleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	notificationID := chi.URLParam(r, "notificationID")

	n, err := h.dispatcher.Resend(ctx, notificationID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toNotificationResponse(n, "sent"))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found", notificationID)
	case errors.Is(err, domain.ErrAlreadySent):
		writeError(w, http.StatusConflict, "notification already sent", notificationID)
	case errors.Is(err, domain.ErrMessagingUnavailable):
		// No attempt was made; the row stays pending and the caller can
		// authenticate and retry.
		writeJSON(w, http.StatusOK, toNotificationResponse(n, "unavailable"))
	case errors.Is(err, domain.ErrMessagingDispatch):
		writeJSON(w, http.StatusOK, toNotificationResponse(n, "failed"))
	default:
		logger.ErrorContext(ctx, "Notification resend failed", "error", err, "notification_id", notificationID)
		writeError(w, http.StatusBadGateway, "record store unavailable", "")
	}
}

func (h *NotificationHandler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if err := h.dispatcher.AuthenticateMessaging(ctx); err != nil {
		logger.ErrorContext(ctx, "Messaging authentication failed", "error", err)
		writeError(w, http.StatusBadGateway, "messaging authentication failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toNotificationResponse(n *domain.Notification, result string) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		PatientID:     n.PatientID,
		AppointmentID: n.AppointmentID,
		Message:       n.Message,
		Type:          n.Type,
		Status:        n.Status,
		SentAt:        n.SentAt,
		Result:        result,
	}
}
