package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"choiros-backend/internal/auth"
	"choiros-backend/internal/models"
)

type contextKey string

const (
	claimsKey     contextKey = "claims"
	tenantKey     contextKey = "tenant"
	membershipKey contextKey = "membership"
)

type AuthMiddleware struct {
	jwt *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtManager}
}

// Authenticate requires a valid bearer token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetClaimsFromContext returns the verified token claims
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// GetUserIDFromContext returns the authenticated user's id
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// WithClaims attaches claims to ctx. Used by tests and in-process callers.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg, Code: code})
}
