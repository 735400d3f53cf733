package delivery

import (
	"net/http"
	"strings"

	"github.com/Vovarama1992/asrserve/internal/ports"
)

// tokenFrom reads X-Auth, falling back to "Authorization: Bearer <token>".
func tokenFrom(r *http.Request) string {
	if t := r.Header.Get("X-Auth"); t != "" {
		return t
	}
	if t, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

// AuthMiddleware закрывает историю транскрипций токеном из /api/login.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			if ok, err := auth.ValidateToken(r.Context(), token); err != nil || !ok {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
