package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/chatblast/core"
	"github.com/dmitrymomot/chatblast/pkg/cookie"
	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// Result is a successful resolution. Tenant is nil outside any tenant.
type Result struct {
	Profile    *identity.Profile
	Session    *Session
	Tenant     *tenant.Tenant
	CookieName string
}

// TenantID returns the tenant id of the result, or "".
func (r *Result) TenantID() string {
	if r.Tenant == nil {
		return ""
	}
	return r.Tenant.ID
}

// Resolver decides which profile a request belongs to.
type Resolver struct {
	tenants  TenantResolver
	store    Store
	profiles Profiles
	cookies  *cookie.Manager
	log      *slog.Logger
}

// NewResolver returns a Resolver reading tenants from the request referer,
// sessions from store and profiles from profiles.
func NewResolver(tenants TenantResolver, store Store, profiles Profiles, cookies *cookie.Manager, opts ...Option) *Resolver {
	o := buildOptions(opts)
	return &Resolver{
		tenants:  tenants,
		store:    store,
		profiles: profiles,
		cookies:  cookies,
		log:      o.logger.With(logger.Component("session.resolver")),
	}
}

// Resolve runs the full validation pipeline for r.
//
// A request without a token fails with core.ErrUnauthenticated. A token that
// no longer maps to a valid identity fails with a stale-session error naming
// the cookie to clear.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request) (*Result, error) {
	t, err := rs.tenants.ResolveRequest(ctx, r)
	if err != nil {
		rs.log.WarnContext(ctx, "tenant resolution failed, continuing without tenant", logger.Error(err))
		t = nil
	}

	slot := CookieSlot(t, rs.cookies.Has(r, DefaultCookie))
	tok, err := rs.cookies.Get(r, slot)
	if err != nil {
		return nil, ErrMissingToken
	}

	sess, err := rs.store.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, core.StaleSession(slot)
		}
		return nil, err
	}

	p, err := rs.profiles.Get(ctx, sess.ProfileID)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, core.StaleSession(slot)
		}
		return nil, err
	}

	if err := checkIdentity(slot, p, t); err != nil {
		return nil, err
	}

	if t != nil && !p.Visited(t.ID) {
		if err := rs.profiles.AddVisitedTenant(ctx, p.ID, t.ID); err != nil {
			rs.log.WarnContext(ctx, "failed to record visited tenant",
				logger.ProfileID(p.ID),
				logger.TenantID(t.ID),
				logger.Error(err),
			)
		} else {
			p.Tenants = append(p.Tenants, t.ID)
		}
	}

	return &Result{Profile: p, Session: sess, Tenant: t, CookieName: slot}, nil
}

// IsAuthenticated reports whether r resolves to a profile.
func (rs *Resolver) IsAuthenticated(ctx context.Context, r *http.Request) bool {
	_, err := rs.Resolve(ctx, r)
	return err == nil
}

// checkIdentity cross-checks the profile against the slot it was read from
// and the tenant in context.
func checkIdentity(slot string, p *identity.Profile, t *tenant.Tenant) error {
	if slot == DefaultCookie && p.Kind != identity.Registered {
		return ErrWrongSlot
	}

	stale := core.StaleSession(slot)

	// registered tokens are only ever issued to the default slot
	if slot != DefaultCookie && p.Kind == identity.Registered {
		return stale
	}

	if t == nil {
		if p.Kind != identity.Registered {
			return stale
		}
		return nil
	}

	if p.Kind != identity.Registered && p.TenantID != t.ID {
		return stale
	}

	switch t.Strategy {
	case tenant.AnonymousAuth:
		if p.Kind == identity.Delegated {
			return stale
		}
	case tenant.DelegatedAuth:
		if p.Kind != identity.Delegated {
			return stale
		}
	}
	return nil
}
