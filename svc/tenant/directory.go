package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/chatblast/pkg/logger"
)

// Directory resolves, creates and mutates tenants.
type Directory struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	referer  Resolver
	txt      TXTResolver
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Directory.
type Option func(*Directory)

// WithCache enables read-through caching of tenants for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(d *Directory) {
		if c != nil {
			d.cache = c
			d.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.log = l
		}
	}
}

// WithBaseURL sets the origin used by ResolveRequest to find the reference
// in the Referer header.
func WithBaseURL(baseURL string) Option {
	return func(d *Directory) {
		d.referer = RefererResolver(baseURL)
	}
}

// WithTXTResolver replaces the DNS resolver used by VerifyDomain.
func WithTXTResolver(r TXTResolver) Option {
	return func(d *Directory) {
		if r != nil {
			d.txt = r
		}
	}
}

// WithClock sets the time source for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDirectory returns a Directory over store.
func NewDirectory(store Store, opts ...Option) *Directory {
	d := &Directory{
		store:    store,
		cache:    NoOpCache{},
		cacheTTL: 5 * time.Minute,
		referer:  RefererResolver(""),
		txt:      net.DefaultResolver,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve maps an opaque reference to a tenant. Empty, malformed and unknown
// references resolve to nil without error; only store failures are errors.
func (d *Directory) Resolve(ctx context.Context, ref string) (*Tenant, error) {
	if ref == "" || uuid.Validate(ref) != nil {
		return nil, nil
	}

	if t, ok := d.cache.Get(ctx, ref); ok {
		return t, nil
	}

	t, err := d.store.Get(ctx, ref)
	if errors.Is(err, ErrTenantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.cache.Set(ctx, t, d.cacheTTL); err != nil {
		d.log.WarnContext(ctx, "failed to cache tenant",
			logger.Component("tenant"),
			logger.TenantID(t.ID),
			logger.Error(err),
		)
	}
	return t, nil
}

// ResolveRequest resolves the tenant referenced by the request's Referer.
func (d *Directory) ResolveRequest(ctx context.Context, r *http.Request) (*Tenant, error) {
	return d.Resolve(ctx, d.referer(r))
}

// Get returns the tenant with id or ErrTenantNotFound.
func (d *Directory) Get(ctx context.Context, id string) (*Tenant, error) {
	t, err := d.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// Owned returns the tenant with id if actor owns it or holds
// PermissionManage.
func (d *Directory) Owned(ctx context.Context, actor Actor, id string) (*Tenant, error) {
	t, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayManage(actor, t) {
		return nil, ErrNotOwner
	}
	return t, nil
}

// Summary returns the public part of the tenant with id.
func (d *Directory) Summary(ctx context.Context, id string) (Summary, error) {
	t, err := d.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return t.Summary(), nil
}

// ListByOwner returns the tenants owned by ownerID, oldest first.
func (d *Directory) ListByOwner(ctx context.Context, ownerID string) ([]*Tenant, error) {
	return d.store.ListByOwner(ctx, ownerID)
}

// OwnsAny reports whether ownerID owns at least one tenant.
func (d *Directory) OwnsAny(ctx context.Context, ownerID string) (bool, error) {
	n, err := d.store.CountByOwner(ctx, ownerID)
	return n > 0, err
}

// CreateParams describes a tenant to create. An empty name gets a generated
// one.
type CreateParams struct {
	Name         string        `json:"name"`
	Strategy     Strategy      `json:"strategy"`
	Domain       string        `json:"domain"`
	Verification *Verification `json:"verification"`
	CookieName   string        `json:"cookie_name"`
}

// Create validates and stores a new inactive tenant owned by ownerID.
func (d *Directory) Create(ctx context.Context, ownerID string, p CreateParams) (*Tenant, error) {
	t := &Tenant{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         p.Name,
		State:        StateInactive,
		Strategy:     p.Strategy,
		Domain:       Domain{Value: p.Domain},
		Verification: p.Verification,
		CookieName:   p.CookieName,
		CreatedAt:    d.now().UTC(),
	}
	if t.Name == "" {
		t.Name = DefaultName()
	}

	Normalize(nil, t)
	if err := Validate(t); err != nil {
		return nil, err
	}
	if err := d.ensureNameFree(ctx, t); err != nil {
		return nil, err
	}
	if err := d.store.Insert(ctx, t); err != nil {
		return nil, err
	}

	d.log.InfoContext(ctx, "tenant created",
		logger.Component("tenant"),
		logger.TenantID(t.ID),
		logger.ProfileID(ownerID),
	)
	return t, nil
}

// Patch applies p to a copy of the tenant, normalizes and validates the
// result, and saves it. Any failure leaves the stored tenant untouched.
// Only holders of PermissionManage may set StateErrored.
func (d *Directory) Patch(ctx context.Context, actor Actor, tenantID string, p Patch) (*Tenant, error) {
	prev, err := d.Owned(ctx, actor, tenantID)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.State != nil && *p.State == StateErrored && !actor.Can(PermissionManage) {
		return nil, ErrStateNotAllowed
	}

	next := p.Apply(prev)
	Normalize(prev, next)
	if err := Validate(next); err != nil {
		return nil, err
	}
	if next.Name != prev.Name {
		if err := d.ensureNameFree(ctx, next); err != nil {
			return nil, err
		}
	}

	if err := d.store.Update(ctx, next); err != nil {
		return nil, err
	}
	d.invalidate(ctx, next.ID)
	return next, nil
}

// VerifyDomain marks the tenant's domain verified once its DNS publishes the
// ownership TXT record.
func (d *Directory) VerifyDomain(ctx context.Context, actor Actor, tenantID string) (*Tenant, error) {
	t, err := d.Owned(ctx, actor, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Domain.Verified {
		return nil, ErrDomainAlreadyVerified
	}

	ok, err := hasOwnershipRecord(ctx, d.txt, t.Domain.Value, t.ID)
	if err != nil {
		d.log.ErrorContext(ctx, "domain lookup failed",
			logger.Component("tenant"),
			logger.TenantID(t.ID),
			logger.Error(err),
		)
		return nil, ErrDomainLookupFailed
	}
	if !ok {
		return nil, ErrDomainRecordMissing
	}

	next := t.Clone()
	next.Domain.Verified = true
	if err := d.store.Update(ctx, next); err != nil {
		return nil, err
	}
	d.invalidate(ctx, next.ID)
	return next, nil
}

func (d *Directory) ensureNameFree(ctx context.Context, t *Tenant) error {
	taken, err := d.store.NameTaken(ctx, t.OwnerID, t.Name, t.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrNameTaken
	}
	return nil
}

func (d *Directory) invalidate(ctx context.Context, id string) {
	if err := d.cache.Delete(ctx, id); err != nil {
		d.log.WarnContext(ctx, "failed to invalidate tenant cache",
			logger.Component("tenant"),
			logger.TenantID(id),
			logger.Error(err),
		)
	}
}
