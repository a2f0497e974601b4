package transport

import (
	"net/http"

	"watermelon-stand/internal/middleware"
	"watermelon-stand/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SwitchViewRequest represents the view switch request payload
type SwitchViewRequest struct {
	Surface string `json:"surface" validate:"required,oneof=shop cart admin"`
}

// SessionHandler exposes the per-visitor navigation state: active surface,
// cart badge count, operator flag, and the current notification.
type SessionHandler struct {
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.GetNav)
		r.Post("/view", h.SwitchView)
		r.Post("/notification/dismiss", h.DismissNotification)
	})
}

// GetNav returns the current navigation state
func (h *SessionHandler) GetNav(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sess.Nav())
}

// SwitchView changes the active surface
func (h *SessionHandler) SwitchView(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	var req SwitchViewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.SetSurface(session.Surface(req.Surface)); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "unknown surface")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sess.Nav())
}

// DismissNotification clears the current notification before its timeout
func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session not established")
		return
	}

	sess.DismissNotification()
	middleware.RespondWithJSON(w, http.StatusOK, sess.Nav())
}
