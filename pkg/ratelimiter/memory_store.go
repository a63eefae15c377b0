package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

const cleanupEvery = time.Minute

// MemoryStore keeps counters in process memory. Expired windows are dropped
// at most once a minute, on a hit.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastClean time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows:   make(map[string]*window),
		now:       time.Now,
		lastClean: time.Now(),
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, length time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastClean) >= cleanupEvery {
		s.cleanupLocked(now)
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(length)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

func (s *MemoryStore) cleanupLocked(now time.Time) {
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
	s.lastClean = now
}
