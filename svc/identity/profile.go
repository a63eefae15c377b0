package identity

import (
	"context"
	"slices"
	"time"
)

// Kind tells how a profile authenticates.
type Kind int

const (
	Registered Kind = iota
	Anonymous
	Delegated
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k >= Registered && k <= Delegated }

func (k Kind) String() string {
	switch k {
	case Registered:
		return "registered"
	case Anonymous:
		return "anonymous"
	case Delegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// PermissionAll grants every permission.
const PermissionAll = "*"

// Email is the address of a Registered profile and its verification state.
type Email struct {
	Address          string `json:"address" bson:"address"`
	Verified         bool   `json:"verified" bson:"verified"`
	VerificationCode string `json:"-" bson:"verification_code,omitempty"`
}

// Name is an optional display name.
type Name struct {
	First string `json:"first,omitempty" bson:"first,omitempty"`
	Last  string `json:"last,omitempty" bson:"last,omitempty"`
}

// Profile is a user identity. Registered profiles are global; Anonymous and
// Delegated ones belong to exactly one tenant.
type Profile struct {
	ID           string    `json:"id" bson:"_id"`
	Kind         Kind      `json:"kind" bson:"kind"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	ExternalID   string    `json:"-" bson:"external_id,omitempty"`
	Email        *Email    `json:"email,omitempty" bson:"email,omitempty"`
	Name         Name      `json:"name" bson:"name"`
	TenantID     string    `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	Tenants      []string  `json:"tenants" bson:"tenants"`
	Permissions  []string  `json:"permissions,omitempty" bson:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Email != nil {
		e := *p.Email
		c.Email = &e
	}
	c.Tenants = slices.Clone(p.Tenants)
	c.Permissions = slices.Clone(p.Permissions)
	return &c
}

// Can reports whether the profile holds perm or the PermissionAll sentinel.
func (p *Profile) Can(perm string) bool {
	return slices.Contains(p.Permissions, PermissionAll) || slices.Contains(p.Permissions, perm)
}

// ActorID identifies the profile as the caller of gated operations.
func (p *Profile) ActorID() string { return p.ID }

// Visited reports whether the profile has interacted with tenantID.
func (p *Profile) Visited(tenantID string) bool {
	return slices.Contains(p.Tenants, tenantID)
}

// Store persists profiles. Lookups return ErrProfileNotFound when nothing
// matches.
type Store interface {
	Get(ctx context.Context, id string) (*Profile, error)
	GetMany(ctx context.Context, ids []string) ([]*Profile, error)
	// FindRegistered looks up a Registered profile by username or email.
	FindRegistered(ctx context.Context, login string) (*Profile, error)
	FindByExternalID(ctx context.Context, externalID string) (*Profile, error)
	UsernameTaken(ctx context.Context, kind Kind, username, tenantID, exceptID string) (bool, error)
	EmailTaken(ctx context.Context, address, exceptID string) (bool, error)
	Insert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	AddTenant(ctx context.Context, profileID, tenantID string) error
}
