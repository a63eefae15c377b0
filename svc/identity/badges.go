package identity

import (
	"context"

	"github.com/dmitrymomot/chatblast/svc/tenant"
)

// Badge is a label shown next to a profile.
type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	BadgeOwner      = Badge{Name: "owner", Description: "Integration owner"}
	BadgeCustomer   = Badge{Name: "customer", Description: "Chatblast customer"}
	BadgeRegistered = Badge{Name: "registered", Description: "Has an account"}
)

// TenantOwnership answers whether a profile owns any tenant.
type TenantOwnership interface {
	OwnsAny(ctx context.Context, ownerID string) (bool, error)
}

// Badges lists the badges p shows in the context of t, which may be nil.
func Badges(ctx context.Context, owners TenantOwnership, p *Profile, t *tenant.Tenant) ([]Badge, error) {
	badges := make([]Badge, 0, 3)

	if t != nil && t.OwnerID == p.ID {
		badges = append(badges, BadgeOwner)
	}

	owns, err := owners.OwnsAny(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if owns {
		badges = append(badges, BadgeCustomer)
	}

	if p.Email != nil {
		badges = append(badges, BadgeRegistered)
	}
	return badges, nil
}
