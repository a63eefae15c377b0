package tenant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/chatblast/core"
	"github.com/dmitrymomot/chatblast/pkg/validator"
	"github.com/dmitrymomot/chatblast/svc/tenant"
)

func validTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:      "id",
		OwnerID: "owner",
		Name:    "apps-042",
		Domain:  tenant.Domain{Value: "www.example.com"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, tenant.Validate(validTenant()))

	tests := []struct {
		name   string
		mutate func(*tenant.Tenant)
		field  string
	}{
		{"uppercase name", func(tn *tenant.Tenant) { tn.Name = "Shop" }, "name"},
		{"short name", func(tn *tenant.Tenant) { tn.Name = "a" }, "name"},
		{"bad domain", func(tn *tenant.Tenant) { tn.Domain.Value = "localhost" }, "domain.value"},
		{"short label", func(tn *tenant.Tenant) { tn.Domain.Value = "ab.com" }, "domain.value"},
		{"unknown state", func(tn *tenant.Tenant) { tn.State = 7 }, "state"},
		{"delegated without config", func(tn *tenant.Tenant) { tn.Strategy = tenant.DelegatedAuth }, "verification"},
		{"http verification url", func(tn *tenant.Tenant) {
			tn.Strategy = tenant.DelegatedAuth
			tn.Verification = &tenant.Verification{URL: "http://api.example.com/me", TokenKey: "Bearer"}
		}, "verification.url"},
		{"foreign verification domain", func(tn *tenant.Tenant) {
			tn.Strategy = tenant.DelegatedAuth
			tn.Verification = &tenant.Verification{URL: "https://api.evil.com/me", TokenKey: "Bearer"}
		}, "verification.url"},
		{"bad token key", func(tn *tenant.Tenant) {
			tn.Strategy = tenant.DelegatedAuth
			tn.Verification = &tenant.Verification{URL: "https://api.example.com/me", TokenKey: "to ken"}
		}, "verification.token_key"},
		{"bad placement", func(tn *tenant.Tenant) {
			tn.Strategy = tenant.DelegatedAuth
			tn.Verification = &tenant.Verification{URL: "https://api.example.com/me", TokenKey: "token", TokenPlacement: 9}
		}, "verification.token_placement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tn := validTenant()
			tt.mutate(tn)
			err := tenant.Validate(tn)
			assert.ErrorIs(t, err, core.ErrValidationFailed)
			assert.True(t, validator.ExtractValidationErrors(err).Has(tt.field), err)
		})
	}

	t.Run("delegated with matching registrable domain", func(t *testing.T) {
		t.Parallel()

		tn := validTenant()
		tn.Strategy = tenant.DelegatedAuth
		tn.Verification = &tenant.Verification{
			URL:            "https://auth.api.example.com/v1/me",
			APIKey:         "k",
			TokenPlacement: tenant.PlacementQuery,
			TokenKey:       "access-token",
		}
		assert.NoError(t, tenant.Validate(tn))
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	prev := validTenant()
	prev.Domain = tenant.Domain{Value: "example.com", Verified: true}

	same := prev.Clone()
	same.Domain.Value = "  example.com "
	tenant.Normalize(prev, same)
	assert.Equal(t, "example.com", same.Domain.Value)
	assert.True(t, same.Domain.Verified)

	recased := prev.Clone()
	recased.Domain.Value = "EXAMPLE.com"
	tenant.Normalize(prev, recased)
	assert.Equal(t, "example.com", recased.Domain.Value)
	assert.False(t, recased.Domain.Verified)

	moved := prev.Clone()
	moved.Domain.Value = "example.org"
	tenant.Normalize(prev, moved)
	assert.False(t, moved.Domain.Verified)

	created := validTenant()
	created.Domain.Verified = true
	tenant.Normalize(nil, created)
	assert.False(t, created.Domain.Verified)
}
