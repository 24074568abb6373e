package weatherstore

import (
	"context"
	"sync"

	"github.com/yanqian/codify/internal/domain/forecast"
)

type recordKey struct {
	dateID string
	key    string
}

// MemoryStore keeps daily records in process. Used for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]forecast.DailyWeatherRecord
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]forecast.DailyWeatherRecord)}
}

// Get implements forecast.Cache.
func (s *MemoryStore) Get(_ context.Context, dateID, key string) (forecast.DailyWeatherRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{dateID, key}]
	return rec, ok, nil
}

// Insert implements forecast.Cache.
func (s *MemoryStore) Insert(_ context.Context, rec forecast.DailyWeatherRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{rec.DateID, rec.Key}
	if _, exists := s.records[k]; exists {
		return forecast.ErrDuplicateRecord
	}
	s.records[k] = rec
	return nil
}

// UpsertAll implements forecast.Cache; the batch is applied under one lock.
func (s *MemoryStore) UpsertAll(ctx context.Context, recs []forecast.DailyWeatherRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records[recordKey{rec.DateID, rec.Key}] = rec
	}
	return nil
}

var _ forecast.Cache = (*MemoryStore)(nil)
