package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halloween-rock-api/internal/model"
)

func TestMemorySaveLoadState(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	raw, at, err := repo.LoadState(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, raw, "missing player is not an error")
	assert.Nil(t, at)

	blob := []byte(`{"currency": 42, "schemaVersion": "2"}`)
	require.NoError(t, repo.SaveState(ctx, "p1", blob))

	raw, at, err = repo.LoadState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, blob, raw)
	require.NotNil(t, at)
	assert.False(t, at.IsZero())
}

func TestMemorySaveStateOverwrites(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveState(ctx, "p1", []byte(`{"currency": 1}`)))
	require.NoError(t, repo.SaveState(ctx, "p1", []byte(`{"currency": 2}`)))

	raw, _, err := repo.LoadState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"currency": 2}`), raw)
}

func TestMemoryLoadStateReturnsCopy(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveState(ctx, "p1", []byte(`{"currency": 1}`)))

	raw, _, err := repo.LoadState(ctx, "p1")
	require.NoError(t, err)
	raw[0] = 'X'

	fresh, _, err := repo.LoadState(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), fresh[0], "caller mutations must not leak into the store")
}

func TestMemoryLedger(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	for _, itemID := range []string{"tom", "double", "witch"} {
		require.NoError(t, repo.RecordPurchase(ctx, &model.PurchaseRecord{
			PlayerID: "p1",
			ItemID:   itemID,
			Category: model.CategoryDrum,
			Price:    5,
		}))
	}
	require.NoError(t, repo.RecordPurchase(ctx, &model.PurchaseRecord{
		PlayerID: "p2",
		ItemID:   "tom",
		Category: model.CategoryDrum,
		Price:    5,
	}))

	records, total, err := repo.ListPurchases(ctx, "p1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	assert.Equal(t, "witch", records[0].ItemID, "newest first")
	assert.Equal(t, "tom", records[2].ItemID)

	t.Run("pagination", func(t *testing.T) {
		records, total, err := repo.ListPurchases(ctx, "p1", 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, records, 2)

		records, _, err = repo.ListPurchases(ctx, "p1", 2, 2)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "tom", records[0].ItemID)

		records, total, err = repo.ListPurchases(ctx, "p1", 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, records)
	})

	t.Run("unknown player", func(t *testing.T) {
		records, total, err := repo.ListPurchases(ctx, "nobody", 10, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, records)
	})
}

func TestMemoryGetStats(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveState(ctx, "p1", []byte(`{}`)))
	require.NoError(t, repo.RecordPurchase(ctx, &model.PurchaseRecord{PlayerID: "p1", ItemID: "tom"}))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["total_players"])
	assert.Equal(t, int64(1), stats["total_purchases"])
}
