package handler

import (
	"errors"
	"net/http"

	"lectern/internal/domain"
	"lectern/internal/httputil"

	"github.com/google/uuid"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var quotaErr *domain.QuotaExceededError

	switch {
	case errors.As(err, &quotaErr):
		httputil.RespondErrorWithExtras(w, http.StatusPaymentRequired, quotaErr.Error(), map[string]interface{}{
			"plan":     quotaErr.Plan,
			"resource": quotaErr.Resource,
			"limit":    quotaErr.Limit,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a string as a UUID, returning a domain validation error on failure
func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.ErrValidation
	}
	return id, nil
}
