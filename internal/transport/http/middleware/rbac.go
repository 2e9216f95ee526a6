package middleware

import (
	"context"
	"net/http"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
)

// PermissionStore answers role/permission checks. auth.StaticPermissions is
// the built-in matrix.
type PermissionStore interface {
	HasPermission(ctx context.Context, role auth.Role, permission string) (bool, error)
}

// RequirePermission answers 401 without a user, 403 when the role lacks the
// permission and 500 when the store cannot decide.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.Role, permission)
			if err != nil {
				logging.FromContext(r.Context()).Error("permission check failed", "permission", permission, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
				return
			}
			if !allowed {
				api.FailWithDetails(w, http.StatusForbidden, "forbidden", "insufficient permissions",
					map[string]string{"permission": permission, "role": string(user.Role)}, requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
