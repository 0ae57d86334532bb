package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lectern/internal/domain/models"
	"lectern/internal/domain/services"
	"lectern/internal/httputil"
)

// BookHandler handles book HTTP requests
type BookHandler struct {
	service services.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(service services.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger,
	}
}

// HealthCheck returns a simple liveness response
// GET /health
func (h *BookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// IngestBook ingests a new book from decoded page text
// POST /api/books
func (h *BookHandler) IngestBook(w http.ResponseWriter, r *http.Request) {
	var req services.IngestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	result, err := h.service.Ingest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	// Re-uploading an existing title is not an error: the client gets the
	// existing book back with 200 instead of 201.
	status := http.StatusCreated
	if result.Outcome == models.IngestOutcomeAlreadyExists {
		status = http.StatusOK
	}

	httputil.RespondJSON(w, status, result)
}

// ListBooks lists all books, optionally filtered by title/author search
// GET /api/books?search=
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	books, err := h.service.List(r.Context(), search)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
	})
}

// GetBookBySlug retrieves a single book by its slug
// GET /api/books/{slug}
func (h *BookHandler) GetBookBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing slug")
		return
	}

	book, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, book)
}

// GetSegments fetches a range of a book's segments by index
// GET /api/books/{id}/segments?from=&to=
func (h *BookHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid book ID format")
		return
	}

	fromIndex, err := queryInt(r, "from", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid 'from' parameter")
		return
	}
	toIndex, err := queryInt(r, "to", fromIndex)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid 'to' parameter")
		return
	}

	userID := httputil.GetUserID(r)
	segments, err := h.service.GetSegments(r.Context(), userID, bookID, fromIndex, toIndex)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":  bookID,
		"segments": segments,
	})
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
