package session

import (
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// DefaultCookie holds registered profiles' tokens.
const DefaultCookie = "token"

// TenantCookie is the tenant-namespaced slot for anonymous and delegated
// profiles.
func TenantCookie(tenantID string) string {
	return tenantID + "-" + DefaultCookie
}

// CookieSlot picks the cookie a request's token is read from. The tenant
// slot is used when a tenant is in context and it either delegates auth or
// the default cookie is absent.
func CookieSlot(t *tenant.Tenant, hasDefault bool) string {
	if t != nil && (t.Strategy == tenant.DelegatedAuth || !hasDefault) {
		return TenantCookie(t.ID)
	}
	return DefaultCookie
}

// IssueCookieName is the cookie a freshly issued token is written to.
func IssueCookieName(p *identity.Profile) string {
	if p.Kind == identity.Registered || p.TenantID == "" {
		return DefaultCookie
	}
	return TenantCookie(p.TenantID)
}
