package middleware

import (
	"net/http"
	"strings"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/requestctx"
)

// Auth attaches the token's user to the request context. Requests without a
// usable token continue anonymously; RequirePermission rejects them later.
func Auth(secret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, issuer, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := claims.User()
			if err != nil {
				logging.FromContext(r.Context()).Warn("token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = requestctx.WithActor(ctx, requestctx.Actor{UserID: user.UserID, CompanyID: user.CompanyID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
