package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "darkwatch/internal/errors"
	"darkwatch/internal/middleware"
	"darkwatch/internal/services"
)

// SessionHandler manages the caller's working set lifecycle.
type SessionHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SessionHandler {
	return &SessionHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "session_handler")),
		errorHandler: errorHandler,
	}
}

// Reset handles DELETE /api/session. It discards the session's working
// set so the next upload starts from an empty dashboard.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.service.Reset(r.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session reset",
		slog.String("session_id", sessionID),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	render.JSON(w, r, map[string]interface{}{
		"status": "reset",
	})
}
