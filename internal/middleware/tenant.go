package middleware

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"

	"github.com/gorilla/mux"
)

type OrganizationFinder interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

type MembershipFinder interface {
	Get(ctx context.Context, orgID, userID int64) (*models.Membership, error)
}

// TenantMiddleware resolves the organization a request targets and the
// caller's membership in it. It must run after Authenticate.
type TenantMiddleware struct {
	orgs        OrganizationFinder
	memberships MembershipFinder
	baseDomain  string
}

func NewTenantMiddleware(orgs OrganizationFinder, memberships MembershipFinder, baseDomain string) *TenantMiddleware {
	return &TenantMiddleware{orgs: orgs, memberships: memberships, baseDomain: strings.ToLower(baseDomain)}
}

// Resolve loads the tenant from the {org} path variable, the org query
// parameter or the request subdomain, in that order. Unknown tenants get
// 404 and non-members 403; superadmins act as admins everywhere.
func (m *TenantMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := m.slugFor(r)
		if slug == "" {
			writeError(w, http.StatusNotFound, "tenant_not_found", "organization not specified")
			return
		}

		org, err := m.orgs.GetBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				writeError(w, http.StatusNotFound, "tenant_not_found", "organization not found")
				return
			}
			log.Printf("[Tenant] Failed to load organization %q: %v", slug, err)
			writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to load organization")
			return
		}

		claims, ok := GetClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authentication required")
			return
		}

		membership, err := m.memberships.Get(r.Context(), org.ID, claims.UserID)
		switch {
		case err == nil:
		case errors.Is(err, repositories.ErrNotFound) && claims.IsSuperadmin:
			membership = &models.Membership{OrganizationID: org.ID, UserID: claims.UserID, Role: models.RoleAdmin}
		case errors.Is(err, repositories.ErrNotFound):
			writeError(w, http.StatusForbidden, models.ErrCodeForbidden, "not a member of this organization")
			return
		default:
			log.Printf("[Tenant] Failed to load membership of user %d in %s: %v", claims.UserID, slug, err)
			writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to load membership")
			return
		}

		ctx := context.WithValue(r.Context(), tenantKey, org)
		ctx = context.WithValue(ctx, membershipKey, membership)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *TenantMiddleware) slugFor(r *http.Request) string {
	if slug := mux.Vars(r)["org"]; slug != "" {
		return strings.ToLower(slug)
	}
	if slug := r.URL.Query().Get("org"); slug != "" {
		return strings.ToLower(slug)
	}
	return subdomain(r.Host, m.baseDomain)
}

// subdomain returns "alto" for host "alto.choiros.app" with base domain
// "choiros.app", and "" for the bare domain or any other host.
func subdomain(host, baseDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if baseDomain == "" || !strings.HasSuffix(host, "."+baseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+baseDomain)
	if sub == "www" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}

// GetTenantFromContext returns the organization resolved for the request
func GetTenantFromContext(ctx context.Context) (*models.Organization, bool) {
	org, ok := ctx.Value(tenantKey).(*models.Organization)
	return org, ok
}

// GetMembershipFromContext returns the caller's membership in the tenant
func GetMembershipFromContext(ctx context.Context) (*models.Membership, bool) {
	m, ok := ctx.Value(membershipKey).(*models.Membership)
	return m, ok
}

// GetRoleFromContext returns the caller's role in the tenant
func GetRoleFromContext(ctx context.Context) (string, bool) {
	m, ok := GetMembershipFromContext(ctx)
	if !ok {
		return "", false
	}
	return m.Role, true
}
