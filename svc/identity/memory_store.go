package identity

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMemoryStore returns an empty in-process Store for tests and single
// instance setups.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Profile)}
}

// Get returns a copy of the profile with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

// GetMany returns copies of the known profiles among ids.
func (s *MemoryStore) GetMany(_ context.Context, ids []string) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// FindRegistered matches login against usernames and email addresses of
// Registered profiles.
func (s *MemoryStore) FindRegistered(_ context.Context, login string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Kind != Registered {
			continue
		}
		if p.Username == login || (p.Email != nil && p.Email.Address == login) {
			return p.Clone(), nil
		}
	}
	return nil, ErrProfileNotFound
}

// FindByExternalID returns the Delegated profile bound to externalID.
func (s *MemoryStore) FindByExternalID(_ context.Context, externalID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.ExternalID != "" && p.ExternalID == externalID {
			return p.Clone(), nil
		}
	}
	return nil, ErrProfileNotFound
}

// UsernameTaken reports whether username is used in the scope of kind and
// tenantID, ignoring exceptID.
func (s *MemoryStore) UsernameTaken(_ context.Context, kind Kind, username, tenantID, exceptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.usernameTakenLocked(kind, username, tenantID, exceptID), nil
}

func (s *MemoryStore) usernameTakenLocked(kind Kind, username, tenantID, exceptID string) bool {
	for _, p := range s.profiles {
		if p.ID == exceptID || p.Username != username || p.Kind != kind {
			continue
		}
		if kind == Registered || p.TenantID == tenantID {
			return true
		}
	}
	return false
}

// EmailTaken reports whether another profile uses address.
func (s *MemoryStore) EmailTaken(_ context.Context, address, exceptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emailTakenLocked(address, exceptID), nil
}

func (s *MemoryStore) emailTakenLocked(address, exceptID string) bool {
	for _, p := range s.profiles {
		if p.ID != exceptID && p.Email != nil && p.Email.Address == address {
			return true
		}
	}
	return false
}

func (s *MemoryStore) checkUniqueLocked(p *Profile) error {
	if s.usernameTakenLocked(p.Kind, p.Username, p.TenantID, p.ID) {
		return ErrUsernameTaken
	}
	if p.Email != nil && s.emailTakenLocked(p.Email.Address, p.ID) {
		return ErrEmailTaken
	}
	if p.ExternalID != "" {
		for _, other := range s.profiles {
			if other.ID != p.ID && other.ExternalID == p.ExternalID {
				return ErrExternalIDTaken
			}
		}
	}
	return nil
}

// Insert stores p, enforcing the same uniqueness rules as the mongo indexes.
func (s *MemoryStore) Insert(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(p); err != nil {
		return err
	}
	s.profiles[p.ID] = p.Clone()
	return nil
}

// Update replaces the stored profile.
func (s *MemoryStore) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	if err := s.checkUniqueLocked(p); err != nil {
		return err
	}
	s.profiles[p.ID] = p.Clone()
	return nil
}

// AddTenant adds tenantID to the visited set of the profile.
func (s *MemoryStore) AddTenant(_ context.Context, profileID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return ErrProfileNotFound
	}
	if !slices.Contains(p.Tenants, tenantID) {
		p.Tenants = append(p.Tenants, tenantID)
	}
	return nil
}
