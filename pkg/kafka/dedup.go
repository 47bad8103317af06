package kafka

import (
	"context"
	"sync"
	"time"
)

// DedupStore remembers event ids that were handled successfully, so a
// redelivered event is acknowledged without running the handler again.
type DedupStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

// MemoryDedupStore keeps ids in process memory for ttl. It suits a consumer
// whose side effects are themselves idempotent (such as an upsert into an
// in-memory index), where losing the set on restart only costs a replay.
type MemoryDedupStore struct {
	mu        sync.Mutex
	ids       map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryDedupStore returns an empty store. Expired ids are swept at most
// once per ttl, during Remember.
func NewMemoryDedupStore(ttl time.Duration) *MemoryDedupStore {
	return &MemoryDedupStore{
		ids: make(map[string]time.Time),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryDedupStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.ids[eventID]
	return ok && s.now().Sub(at) <= s.ttl, nil
}

func (s *MemoryDedupStore) Remember(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.ids[eventID] = now
	if now.Sub(s.lastSweep) >= s.ttl {
		for id, at := range s.ids {
			if now.Sub(at) > s.ttl {
				delete(s.ids, id)
			}
		}
		s.lastSweep = now
	}
	return nil
}

// Len reports how many ids are held, expired ones not yet swept included.
func (s *MemoryDedupStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
