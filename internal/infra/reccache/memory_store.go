package reccache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/yanqian/codify/internal/domain/recommendation"
)

type entry struct {
	key       string
	picks     []recommendation.CachedPick
	expiresAt time.Time
}

// MemoryStore is a bounded in-process recommendation cache. Entries expire
// after ttl and the oldest entry is evicted once maxEntries is reached.
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List
	entries    map[string]*list.Element
	now        func() time.Time
}

// NewMemoryStore constructs a store. maxEntries <= 0 means unbounded and
// ttl <= 0 disables expiry.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get implements recommendation.Cache.
func (s *MemoryStore) Get(_ context.Context, key string) ([]recommendation.CachedPick, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if s.expired(e) {
		s.remove(el)
		return nil, false, nil
	}
	return clonePicks(e.picks), true, nil
}

// Put implements recommendation.Cache. Re-putting a key refreshes its age.
func (s *MemoryStore) Put(_ context.Context, key string, picks []recommendation.CachedPick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		s.remove(el)
	}
	s.evictExpired()
	for s.maxEntries > 0 && s.order.Len() >= s.maxEntries {
		s.remove(s.order.Front())
	}
	e := &entry{key: key, picks: clonePicks(picks)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = s.order.PushBack(e)
	return nil
}

// Delete implements recommendation.Cache.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		s.remove(el)
	}
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	return s.order.Len()
}

// evictExpired drops expired entries from the front; entries share one ttl,
// so insertion order is expiry order.
func (s *MemoryStore) evictExpired() {
	for el := s.order.Front(); el != nil; el = s.order.Front() {
		if !s.expired(el.Value.(*entry)) {
			return
		}
		s.remove(el)
	}
}

func (s *MemoryStore) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *MemoryStore) remove(el *list.Element) {
	e := s.order.Remove(el).(*entry)
	delete(s.entries, e.key)
}

func clonePicks(picks []recommendation.CachedPick) []recommendation.CachedPick {
	out := make([]recommendation.CachedPick, len(picks))
	copy(out, picks)
	return out
}

var _ recommendation.Cache = (*MemoryStore)(nil)
