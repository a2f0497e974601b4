package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireOperator admits only the operator identity. Everyone else gets the
// access-denied representation, which deliberately echoes the caller's own
// identity for diagnostics and mounts no operations. This equality check is
// a surface gate, not a security boundary; the backing store's own rules
// are the real enforcement.
func RequireOperator(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				logger.Warn("Session not found in context")
				RespondWithError(w, http.StatusUnauthorized, "could not establish identity")
				return
			}

			if !sess.Operator() {
				logger.Warn("Non-operator attempted to access operator surface",
					zap.String("uid", sess.UID()),
					zap.String("path", r.URL.Path),
				)
				RespondWithErrorDetails(w, http.StatusForbidden,
					"You do not have permission to view this page.",
					map[string]interface{}{"uid": sess.UID()},
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
