package myidempotency

import (
	"context"
	"sync"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
)

type entry struct {
	record    Record
	expiresAt time.Time
}

type inMemoryStore struct {
	sync.Mutex
	nower   mytime.Nower
	entries map[string]entry
}

func NewInMemoryStore(nower mytime.Nower) *inMemoryStore {
	return &inMemoryStore{
		nower:   nower,
		entries: map[string]entry{},
	}
}

func (s *inMemoryStore) Reserve(c context.Context, key string, fingerprint string, ttl time.Duration) (Record, bool, error) {
	s.Lock()
	defer s.Unlock()

	now := s.nower.Now()
	existing, found := s.entries[key]
	if found && now.Before(existing.expiresAt) {
		return existing.record, false, nil
	}

	record := Record{State: StateInProgress, Fingerprint: fingerprint}
	s.entries[key] = entry{record: record, expiresAt: now.Add(ttl)}
	return record, true, nil
}

func (s *inMemoryStore) Complete(c context.Context, key string, record Record, ttl time.Duration) error {
	s.Lock()
	defer s.Unlock()

	record.State = StateCompleted
	s.entries[key] = entry{record: record, expiresAt: s.nower.Now().Add(ttl)}
	return nil
}

func (s *inMemoryStore) Release(c context.Context, key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.entries, key)
	return nil
}
