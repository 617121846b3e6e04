package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// RequireToken rejects requests without a valid bearer token signed with
// secret. An empty secret disables the check.
func RequireToken(secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := extractClaims(r, secret)
		if err != nil {
			log.Warn("Rejected trigger request", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Debug("Trigger request authorized", "subject", claims.Subject)
		next.ServeHTTP(w, r)
	})
}

func extractClaims(r *http.Request, secret string) (*TriggerClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errors.New("missing or malformed Authorization header")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return ValidateJWT(token, secret)
}
