package middleware

import (
	"context"
	"net/http"
	"strings"

	"watermelon-stand/internal/session"

	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionCookie is the cookie carrying the session credential between
// requests.
const SessionCookie = "session_token"

// IdentityGate establishes a stable caller identity before any data-bearing
// handler runs. A pre-minted credential in the Authorization header or the
// session cookie is redeemed; with neither present an anonymous session is
// opened and its credential set on the response. A presented credential that
// fails verification is fatal for the request: no identity, no data.
func IdentityGate(manager *session.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					token = cookie.Value
				}
			}

			sess, newToken, err := manager.Resolve(token)
			if err != nil {
				logger.Warn("Identity acquisition failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "could not establish identity")
				return
			}

			if newToken != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    newToken,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the caller's session from the request context.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
