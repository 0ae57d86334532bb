package handler

import (
	"log/slog"
	"net/http"

	"lectern/internal/httputil"
	"lectern/internal/plan"
)

// QuotaHandler exposes the caller's quota state
type QuotaHandler struct {
	ledger *plan.Ledger
	logger *slog.Logger
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(ledger *plan.Ledger, logger *slog.Logger) *QuotaHandler {
	return &QuotaHandler{
		ledger: ledger,
		logger: logger,
	}
}

// GetQuota reports the caller's plan, limits and current usage
// GET /api/me/quota
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	books, err := h.ledger.AdmitBook(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	sessions, err := h.ledger.AdmitSession(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":     books.Plan,
		"limits":   books.Limits,
		"books":    map[string]interface{}{"used": books.Used, "limit": books.Limit, "allowed": books.Allowed},
		"sessions": map[string]interface{}{"used": sessions.Used, "limit": sessions.Limit, "allowed": sessions.Allowed},
	})
}
