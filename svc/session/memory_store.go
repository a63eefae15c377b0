package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory, one per profile.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*Session
	byProfile map[string]string
}

// NewMemoryStore returns an empty in-process Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*Session),
		byProfile: make(map[string]string),
	}
}

// GetByToken returns the active session holding token.
func (m *MemoryStore) GetByToken(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.byID {
		if s.Active && s.Token == token {
			return s.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

// GetByProfile returns the session of profileID, active or not.
func (m *MemoryStore) GetByProfile(_ context.Context, profileID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byProfile[profileID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.byID[id].Clone(), nil
}

// Activate creates or reactivates the session of p.ProfileID.
func (m *MemoryStore) Activate(_ context.Context, p ActivateParams) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s *Session
	if id, ok := m.byProfile[p.ProfileID]; ok {
		s = m.byID[id]
	} else {
		s = &Session{ID: uuid.NewString(), ProfileID: p.ProfileID}
		m.byID[s.ID] = s
		m.byProfile[p.ProfileID] = s.ID
	}

	if !s.Active {
		s.Active = true
		s.Token = p.Token
		s.ActivatedAt = p.At
	}
	s.Fingerprints = addToSet(s.Fingerprints, p.Fingerprint)
	s.IPs = addToSet(s.IPs, p.IP)

	return s.Clone(), nil
}

// Deactivate clears the token of the session with id.
func (m *MemoryStore) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Active = false
	s.Token = ""
	return nil
}

// ListActiveBefore returns the active sessions activated before t.
func (m *MemoryStore) ListActiveBefore(_ context.Context, t time.Time) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*Session{}
	for _, s := range m.byID {
		if s.Active && s.ActivatedAt.Before(t) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}
