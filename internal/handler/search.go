package handler

import (
	"log/slog"
	"net/http"

	"lectern/internal/domain/services"
	"lectern/internal/httputil"
)

// SearchHandler handles segment retrieval HTTP requests
type SearchHandler struct {
	service services.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service services.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// SearchSegments finds the segments most relevant to a query within one book
// GET /api/books/{id}/search?q=&limit=
func (h *SearchHandler) SearchSegments(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	query := r.URL.Query().Get("q")
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
		return
	}

	segments, err := h.service.Search(r.Context(), bookID, query, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":  bookID,
		"query":    query,
		"segments": segments,
	})
}
