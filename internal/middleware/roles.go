package middleware

import (
	"net/http"

	"choiros-backend/internal/models"
)

// RequireManager blocks members who are neither director nor admin of the
// tenant. It must run after TenantMiddleware.Resolve.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		membership, ok := GetMembershipFromContext(r.Context())
		if !ok || !membership.CanManage() {
			writeError(w, http.StatusForbidden, models.ErrCodeForbidden, "director or admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
