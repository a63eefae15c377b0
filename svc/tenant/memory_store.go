package tenant

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps tenants in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
}

// NewMemoryStore returns an empty in-process Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]*Tenant)}
}

// Get returns a copy of the tenant with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t.Clone(), nil
}

// ListByOwner returns copies of the tenants of ownerID, oldest first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Tenant, 0)
	for _, t := range s.tenants {
		if t.OwnerID == ownerID {
			out = append(out, t.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Tenant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// CountByOwner counts the tenants of ownerID.
func (s *MemoryStore) CountByOwner(_ context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tenants {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// NameTaken reports whether ownerID already has a tenant named name.
func (s *MemoryStore) NameTaken(_ context.Context, ownerID, name, exceptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTakenLocked(ownerID, name, exceptID), nil
}

func (s *MemoryStore) nameTakenLocked(ownerID, name, exceptID string) bool {
	for _, t := range s.tenants {
		if t.OwnerID == ownerID && t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

// Insert stores t.
func (s *MemoryStore) Insert(_ context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTakenLocked(t.OwnerID, t.Name, t.ID) {
		return ErrNameTaken
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}

// Update replaces the stored tenant.
func (s *MemoryStore) Update(_ context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[t.ID]; !ok {
		return ErrTenantNotFound
	}
	if s.nameTakenLocked(t.OwnerID, t.Name, t.ID) {
		return ErrNameTaken
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}
