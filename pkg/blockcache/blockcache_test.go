package blockcache

import (
	"testing"

	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithBlocks(t *testing.T, ids ...uint64) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	err = store.Update(func(tx storage.Tx) error {
		for _, id := range ids {
			if err := tx.PutBlock(&types.Block{ID: id, Hash: "h"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return store
}

func TestHitWithinWindow(t *testing.T) {
	store := newStoreWithBlocks(t, 5, 10, 999)
	cache := New(store)

	hit, err := cache.Hit(5)
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = cache.Hit(500)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReloadsOnWindowChange(t *testing.T) {
	store := newStoreWithBlocks(t, 5, 1005)
	cache := New(store)

	hit, err := cache.Hit(5)
	require.NoError(t, err)
	assert.True(t, hit)

	// 1005 falls in the next window; Hit must reload before answering.
	hit, err = cache.Hit(1005)
	require.NoError(t, err)
	assert.True(t, hit)

	// Back in window 0 (reloaded again), a block in that window that was
	// never persisted should report false.
	hit, err = cache.Hit(6)
	require.NoError(t, err)
	assert.False(t, hit)
}
