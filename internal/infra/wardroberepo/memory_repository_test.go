package wardroberepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/codify/internal/domain/outfit"
)

func TestMemoryRepositoryIsolatesUsers(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Replace(1, []outfit.Item{{ID: "t1", Slot: outfit.SlotTop}, {ID: "b1", Slot: outfit.SlotBottom}})

	items, err := repo.ListItems(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	items[0].ID = "mutated"
	again, _ := repo.ListItems(context.Background(), 1)
	require.Equal(t, "t1", again[0].ID)

	other, err := repo.ListItems(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, other)
}
