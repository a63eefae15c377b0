package identity

import (
	"errors"
	"io"

	"github.com/dmitrymomot/chatblast/binder"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

// ProfilePatch lists the fields a Registered profile may change.
type ProfilePatch struct {
	Username *string     `json:"username"`
	Email    *EmailPatch `json:"email"`
	Name     *NamePatch  `json:"name"`
}

// EmailPatch carries the email fields a profile owner may change.
type EmailPatch struct {
	Address *string `json:"address"`
}

// NamePatch carries the display name parts.
type NamePatch struct {
	First *string `json:"first"`
	Last  *string `json:"last"`
}

// DecodeProfilePatch reads a ProfilePatch from JSON, rejecting unknown
// fields and mistyped values.
func DecodeProfilePatch(r io.Reader) (ProfilePatch, error) {
	var pt ProfilePatch
	if err := binder.DecodeStrict(r, &pt); err != nil {
		return ProfilePatch{}, errors.Join(ErrInvalidPatch, err)
	}
	return pt, nil
}

// Validate checks the fields present in the patch.
func (pt ProfilePatch) Validate() error {
	var rules []validator.Rule
	if pt.Username != nil {
		rules = append(rules, validator.Required("username", *pt.Username))
	}
	if pt.Email != nil && pt.Email.Address != nil && *pt.Email.Address != "" {
		rules = append(rules, validator.Email("email.address", *pt.Email.Address))
	}
	if pt.Name != nil {
		if pt.Name.First != nil {
			rules = append(rules, validator.MaxLen("name.first", *pt.Name.First, 32))
		}
		if pt.Name.Last != nil {
			rules = append(rules, validator.MaxLen("name.last", *pt.Name.Last, 32))
		}
	}
	if err := validator.Apply(rules...); err != nil {
		return errors.Join(ErrInvalidPatch, err)
	}
	return nil
}

// Apply returns a patched copy of p. An empty email address removes the
// email record.
func (pt ProfilePatch) Apply(p *Profile) *Profile {
	next := p.Clone()
	if pt.Username != nil {
		next.Username = *pt.Username
	}
	if pt.Email != nil && pt.Email.Address != nil {
		if next.Email == nil {
			next.Email = &Email{}
		}
		next.Email.Address = *pt.Email.Address
	}
	if pt.Name != nil {
		if pt.Name.First != nil {
			next.Name.First = *pt.Name.First
		}
		if pt.Name.Last != nil {
			next.Name.Last = *pt.Name.Last
		}
	}
	return next
}
