package handler

import (
	"log/slog"
	"net/http"

	"lectern/internal/domain/models"
	"lectern/internal/domain/services"
	"lectern/internal/httputil"

	"github.com/google/uuid"
)

// SessionHandler handles voice session HTTP requests
type SessionHandler struct {
	service services.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service services.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

// StartSessionRequest is the body for starting a voice session
type StartSessionRequest struct {
	BookID uuid.UUID `json:"book_id"`
}

// EndSessionRequest is the body for ending a voice session
type EndSessionRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// sessionHistoryEntry augments a session with its display duration
type sessionHistoryEntry struct {
	models.VoiceSession
	DurationDisplay string `json:"duration_display"`
}

// StartSession opens a new voice session against the caller's monthly quota
// POST /api/sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BookID == uuid.Nil {
		httputil.RespondError(w, http.StatusBadRequest, "book_id is required")
		return
	}

	userID := httputil.GetUserID(r)
	result, err := h.service.Start(r.Context(), userID, req.BookID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// EndSession closes an open voice session with its final duration
// POST /api/sessions/{id}/end
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var req EndSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := httputil.GetUserID(r)
	if err := h.service.End(r.Context(), userID, sessionID, req.DurationSeconds); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"ended":      true,
	})
}

// ListSessions returns the caller's ended sessions for the current billing period
// GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	sessions, err := h.service.History(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	entries := make([]sessionHistoryEntry, len(sessions))
	for i, s := range sessions {
		entries[i] = sessionHistoryEntry{VoiceSession: s, DurationDisplay: s.DurationDisplay()}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": entries,
	})
}
