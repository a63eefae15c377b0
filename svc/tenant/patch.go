package tenant

import (
	"errors"
	"io"

	"github.com/dmitrymomot/chatblast/binder"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

// Patch lists the fields an owner may change. Nil fields are left as is.
type Patch struct {
	Name         *string            `json:"name"`
	State        *State             `json:"state"`
	Strategy     *Strategy          `json:"strategy"`
	Domain       *string            `json:"domain"`
	Verification *VerificationPatch `json:"verification"`
	CookieName   *string            `json:"cookie_name"`
}

// VerificationPatch carries the delegated verification fields.
type VerificationPatch struct {
	URL            *string    `json:"url"`
	APIKey         *string    `json:"api_key"`
	TokenPlacement *Placement `json:"token_placement"`
	TokenKey       *string    `json:"token_key"`
}

// DecodePatch reads a Patch from JSON, rejecting unknown fields and
// mistyped values.
func DecodePatch(r io.Reader) (Patch, error) {
	var p Patch
	if err := binder.DecodeStrict(r, &p); err != nil {
		return Patch{}, errors.Join(ErrInvalidPatch, err)
	}
	return p, nil
}

// Validate runs the per-field rules. Who may set which state is decided by
// Directory.Patch.
func (p Patch) Validate() error {
	var rules []validator.Rule
	if p.Name != nil {
		rules = append(rules, validator.Matches("name", *p.Name, namePattern, "2-32 lowercase letters, digits or hyphens"))
	}
	if p.State != nil {
		rules = append(rules, validator.Check("state", p.State.Valid(), "unknown state"))
	}
	if p.Strategy != nil {
		rules = append(rules, validator.Check("strategy", p.Strategy.Valid(), "unknown strategy"))
	}
	if p.Domain != nil {
		rules = append(rules,
			validator.MaxLen("domain", *p.Domain, maxDomainLength),
			validator.Required("domain", *p.Domain),
		)
	}
	if p.CookieName != nil {
		rules = append(rules, validator.MaxLen("cookie_name", *p.CookieName, maxCookieName))
	}
	if v := p.Verification; v != nil {
		if v.URL != nil {
			rules = append(rules,
				validator.MaxLen("verification.url", *v.URL, maxURLLength),
				validator.URLWithScheme("verification.url", *v.URL, "https"),
			)
		}
		if v.APIKey != nil {
			rules = append(rules, validator.MaxLen("verification.api_key", *v.APIKey, maxAPIKeyLength))
		}
		if v.TokenPlacement != nil {
			rules = append(rules, validator.Check("verification.token_placement", v.TokenPlacement.Valid(), "unknown token placement"))
		}
		if v.TokenKey != nil {
			rules = append(rules, validator.Matches("verification.token_key", *v.TokenKey, tokenKeyPattern, "1-64 letters or hyphens"))
		}
	}

	if err := validator.Apply(rules...); err != nil {
		return errors.Join(ErrInvalidPatch, err)
	}
	return nil
}

// Apply returns a copy of t with the patch applied. t is not modified.
func (p Patch) Apply(t *Tenant) *Tenant {
	next := t.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.State != nil {
		next.State = *p.State
	}
	if p.Strategy != nil {
		next.Strategy = *p.Strategy
	}
	if p.Domain != nil {
		next.Domain.Value = *p.Domain
	}
	if p.CookieName != nil {
		next.CookieName = *p.CookieName
	}
	if v := p.Verification; v != nil {
		if next.Verification == nil {
			next.Verification = &Verification{}
		}
		if v.URL != nil {
			next.Verification.URL = *v.URL
		}
		if v.APIKey != nil {
			next.Verification.APIKey = *v.APIKey
		}
		if v.TokenPlacement != nil {
			next.Verification.TokenPlacement = *v.TokenPlacement
		}
		if v.TokenKey != nil {
			next.Verification.TokenKey = *v.TokenKey
		}
	}
	return next
}
