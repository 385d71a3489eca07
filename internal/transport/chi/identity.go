package chi

import (
	"context"
	"net/http"
	"strings"
)

// UserIDHeader carries the caller identity set by the authenticating gateway.
const UserIDHeader = "X-User-ID"

type userIDKey struct{}

// exemptPaths are routes served without a caller identity (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// UserIDFromContext returns the caller identity stored by IdentityMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// ContextWithUserID stores the caller identity in ctx.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// IdentityMiddleware reads the caller identity from the X-User-ID header.
// Requests without it are rejected, except on exempt paths.
func IdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing "+UserIDHeader+" header")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}
