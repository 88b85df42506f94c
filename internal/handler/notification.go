package handler

import (
	"log/slog"
	"net/http"

	"autohub/internal/domain/services"
	"autohub/internal/httputil"
)

// NotificationHandler handles outbound email notifications
type NotificationHandler struct {
	notifier services.Notifier
	logger   *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier services.Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// SendEmail delivers a notification, falling back to the log when no
// mail server is configured
// POST /api/notifications/email
// Returns {"status","to","method"} describing what actually happened
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireDeveloper(w, r); !ok {
		return
	}

	var msg services.EmailMessage
	if err := httputil.ParseJSON(w, r, &msg); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.notifier.Send(r.Context(), &msg)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
