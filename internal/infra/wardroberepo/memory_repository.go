package wardroberepo

import (
	"context"
	"sync"

	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/internal/domain/recommendation"
)

// MemoryRepository is an in-memory WardrobeRepository used for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[int64][]outfit.Item
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[int64][]outfit.Item)}
}

// Replace sets the wardrobe of userID.
func (r *MemoryRepository) Replace(userID int64, items []outfit.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]outfit.Item, len(items))
	copy(cp, items)
	r.items[userID] = cp
}

// ListItems implements recommendation.WardrobeRepository.
func (r *MemoryRepository) ListItems(_ context.Context, userID int64) ([]outfit.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.items[userID]
	out := make([]outfit.Item, len(items))
	copy(out, items)
	return out, nil
}

var _ recommendation.WardrobeRepository = (*MemoryRepository)(nil)
