package middleware

import (
	"net/http"
	"strings"

	"lectern/internal/auth"
	"lectern/internal/httputil"
	"lectern/internal/plan"
)

// publicPaths are served without authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware validates the Bearer token on every request and stores the
// caller's user ID and plan claim in the request context. Requests without a
// valid token are rejected with 401.
func AuthMiddleware(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header must be a Bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			r = httputil.WithUserID(r, claims.GetUserID())
			if p := claims.GetPlan(); p != "" {
				r = r.WithContext(plan.WithTier(r.Context(), plan.TierFromString(p)))
			}

			next.ServeHTTP(w, r)
		})
	}
}
