package identity

import "time"

// View is the public projection of a profile.
type View struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Kind      Kind       `json:"kind"`
	Email     *EmailView `json:"email,omitempty"`
	Name      *Name      `json:"name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// EmailView is the email part of a View, present for the owner only.
type EmailView struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// NewView projects p. The email and full name are only shown to the
// profile itself.
func NewView(p *Profile, self bool) View {
	v := View{
		ID:        p.ID,
		Username:  p.Username,
		Kind:      p.Kind,
		CreatedAt: p.CreatedAt,
	}
	if self {
		if p.Email != nil {
			v.Email = &EmailView{Address: p.Email.Address, Verified: p.Email.Verified}
		}
		if p.Name != (Name{}) {
			name := p.Name
			v.Name = &name
		}
	}
	return v
}
