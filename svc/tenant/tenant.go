package tenant

import (
	"context"
	"time"
)

// State is the lifecycle state of a tenant.
type State int

const (
	StateInactive State = iota
	StateActive
	StateErrored
)

// Valid reports whether s is a known state.
func (s State) Valid() bool { return s >= StateInactive && s <= StateErrored }

// Strategy selects how visitors of a tenant authenticate.
type Strategy int

const (
	AnonymousAuth Strategy = iota
	DelegatedAuth
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool { return s == AnonymousAuth || s == DelegatedAuth }

// Placement says where the caller token goes in the verification request.
type Placement int

const (
	PlacementHeader Placement = iota
	PlacementQuery
	PlacementFormBody
)

// Valid reports whether p is a known placement.
func (p Placement) Valid() bool { return p >= PlacementHeader && p <= PlacementFormBody }

// Domain is the site a tenant embeds the widget on.
type Domain struct {
	Value    string `json:"value" bson:"value"`
	Verified bool   `json:"verified" bson:"verified"`
}

// Verification configures the third-party endpoint used by DelegatedAuth.
// For PlacementHeader, TokenKey is the authorization scheme word.
type Verification struct {
	URL            string    `json:"url" bson:"url"`
	APIKey         string    `json:"api_key,omitempty" bson:"api_key,omitempty"`
	TokenPlacement Placement `json:"token_placement" bson:"token_placement"`
	TokenKey       string    `json:"token_key" bson:"token_key"`
}

// Tenant is a third-party integration. Its id namespaces the session
// cookies of its visitors.
type Tenant struct {
	ID           string        `json:"id" bson:"_id"`
	OwnerID      string        `json:"owner_id" bson:"owner_id"`
	Name         string        `json:"name" bson:"name"`
	State        State         `json:"state" bson:"state"`
	Strategy     Strategy      `json:"strategy" bson:"strategy"`
	Domain       Domain        `json:"domain" bson:"domain"`
	Verification *Verification `json:"verification,omitempty" bson:"verification,omitempty"`
	CookieName   string        `json:"cookie_name,omitempty" bson:"cookie_name,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
}

// Clone returns a deep copy.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	if t.Verification != nil {
		v := *t.Verification
		c.Verification = &v
	}
	return &c
}

// Summary is the public projection of a tenant.
type Summary struct {
	ID         string   `json:"id"`
	State      State    `json:"state"`
	Strategy   Strategy `json:"strategy"`
	CookieName string   `json:"cookie_name,omitempty"`
}

// Summary returns the fields anyone may read.
func (t *Tenant) Summary() Summary {
	return Summary{ID: t.ID, State: t.State, Strategy: t.Strategy, CookieName: t.CookieName}
}

// Store persists tenants. Get returns ErrTenantNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Tenant, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	// NameTaken reports whether ownerID has another tenant called name.
	NameTaken(ctx context.Context, ownerID, name, exceptID string) (bool, error)
	Insert(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
}
