package captcha

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps answers in process memory. Expired entries are dropped
// lazily on access and swept on every Save.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	answer    string
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{answer: answer, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return "", ErrCaptchaNotFound
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return "", ErrCaptchaExpired
	}
	return e.answer, nil
}

func (s *MemoryStore) Take(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return "", ErrCaptchaNotFound
	}
	delete(s.entries, id)
	if !s.now().Before(e.expiresAt) {
		return "", ErrCaptchaExpired
	}
	return e.answer, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return ok && s.now().Before(e.expiresAt), nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
