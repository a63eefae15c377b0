package session

import (
	"context"
	"slices"
	"time"
)

// Session is the single session row of a profile. It is never deleted,
// only deactivated.
type Session struct {
	ID           string    `bson:"_id" json:"id"`
	ProfileID    string    `bson:"profile_id" json:"profile_id"`
	Token        string    `bson:"token,omitempty" json:"-"`
	Fingerprints []string  `bson:"fingerprints" json:"-"`
	IPs          []string  `bson:"ips" json:"-"`
	Active       bool      `bson:"active" json:"active"`
	ActivatedAt  time.Time `bson:"activated_at" json:"activated_at"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Fingerprints = slices.Clone(s.Fingerprints)
	c.IPs = slices.Clone(s.IPs)
	return &c
}

// ActivateParams describe one successful authentication.
type ActivateParams struct {
	ProfileID   string
	Token       string
	Fingerprint string
	IP          string
	At          time.Time
}

// Store persists sessions. Implementations guarantee at most one row per
// profile.
type Store interface {
	// GetByToken returns the active session holding token, or ErrSessionNotFound.
	GetByToken(ctx context.Context, token string) (*Session, error)
	GetByProfile(ctx context.Context, profileID string) (*Session, error)
	// Activate creates or reactivates the profile's session. An already
	// active session keeps its token; the fingerprint and IP are merged.
	Activate(ctx context.Context, p ActivateParams) (*Session, error)
	// Deactivate clears the token. Deactivating an inactive session is a no-op.
	Deactivate(ctx context.Context, id string) error
	// ListActiveBefore returns active sessions activated before t.
	ListActiveBefore(ctx context.Context, t time.Time) ([]*Session, error)
}

func addToSet(set []string, v string) []string {
	if v == "" || slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}
