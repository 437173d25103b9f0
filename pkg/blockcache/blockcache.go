// Package blockcache implements the crawler's windowed membership
// filter, used to answer "have I already persisted block N" without a
// store round trip for every block in the current 1000-block window.
package blockcache

import "github.com/fluence-xyz/indexer/pkg/storage"

const windowSize = 1000

// Cache holds the set of persisted block ids within the current
// 1000-block window. It reloads from the store whenever a query falls
// outside the window it currently holds, so the common case — crawling
// forward through one window — costs one store read per 1000 blocks
// rather than one per block.
type Cache struct {
	store  storage.Store
	window int64 // -1 until the first Hit call; then blockNumber / windowSize
	ids    map[uint64]struct{}
}

// New creates an empty Cache. It has not loaded any window yet; the
// first call to Hit triggers the initial load.
func New(store storage.Store) *Cache {
	return &Cache{store: store, window: -1}
}

// Hit reports whether blockNumber has already been persisted. It
// reloads the cache's window from the store whenever blockNumber falls
// in a different 1000-block window than the one currently cached.
func (c *Cache) Hit(blockNumber uint64) (bool, error) {
	window := int64(blockNumber / windowSize)
	if window != c.window {
		if err := c.reload(window); err != nil {
			return false, err
		}
	}
	_, ok := c.ids[blockNumber]
	return ok, nil
}

func (c *Cache) reload(window int64) error {
	from := uint64(window) * windowSize
	to := from + windowSize - 1

	ids := make(map[uint64]struct{})
	err := c.store.View(func(tx storage.Tx) error {
		blockIDs, err := tx.ListBlockIDsInRange(from, to)
		if err != nil {
			return err
		}
		for _, id := range blockIDs {
			ids[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.ids = ids
	c.window = window
	return nil
}
