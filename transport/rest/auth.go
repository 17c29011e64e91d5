package rest

import (
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userID"

// withAuth resolves the caller's identity from the Authorization header
// before the handler runs.
func (that *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := that.auth.ParseUserID(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
