package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
	"github.com/stretchr/testify/require"
)

// purgeGateway answers get_block with whatever live document is set for
// that block number, so a test can flip a block's hash/status mid-run to
// simulate a reorg being observed by the purge pass.
type purgeGateway struct {
	live map[uint64]map[string]interface{}
}

func (g *purgeGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.URL.Query().Get("blockNumber"), 10, 64)
		b, ok := g.live[id]
		if err != nil || !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(b)
	}
}

func newPurgeCrawler(t *testing.T, live map[uint64]map[string]interface{}) (*Crawler, storage.Store) {
	t.Helper()
	gw := &purgeGateway{live: live}
	server := httptest.NewServer(gw.handler())
	t.Cleanup(server.Close)

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := chainclient.New(server.URL, server.URL, time.Second)
	return New(client, store, Config{Cooldown: time.Millisecond, PollInterval: time.Millisecond}), store
}

func TestPurgeRefreshesUnchangedNonTerminalBlock(t *testing.T) {
	live := map[uint64]map[string]interface{}{
		0: {"block_number": 0, "block_hash": "0xsame", "status": "ACCEPTED_ON_L2"},
	}
	c, store := newPurgeCrawler(t, live)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutBlock(&types.Block{ID: 0, Hash: "0xsame", Status: "PENDING"})
	}))

	progressed, err := c.purgeSweep(context.Background(), false)
	require.NoError(t, err)
	require.True(t, progressed)

	require.NoError(t, store.View(func(tx storage.Tx) error {
		b, err := tx.GetBlock(0)
		require.NoError(t, err)
		require.Equal(t, "ACCEPTED_ON_L2", b.Status)
		return nil
	}))
}

func TestPurgeDeletesReorgedBlock(t *testing.T) {
	live := map[uint64]map[string]interface{}{
		0: {"block_number": 0, "block_hash": "0xnew", "status": "ACCEPTED_ON_L2"},
	}
	c, store := newPurgeCrawler(t, live)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutBlock(&types.Block{ID: 0, Hash: "0xold", Status: "PENDING"})
	}))

	progressed, err := c.purgeSweep(context.Background(), false)
	require.NoError(t, err)
	require.True(t, progressed)

	require.NoError(t, store.View(func(tx storage.Tx) error {
		_, err := tx.GetBlock(0)
		require.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	}))
}

func TestPurgeSkipsTerminalBlocks(t *testing.T) {
	c, store := newPurgeCrawler(t, nil)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutBlock(&types.Block{ID: 0, Hash: "0xdone", Status: "ACCEPTED_ON_L1"})
	}))

	progressed, err := c.purgeSweep(context.Background(), false)
	require.NoError(t, err)
	require.False(t, progressed) // nothing non-terminal to consider
}

func TestPurgeDryRunMakesNoChanges(t *testing.T) {
	live := map[uint64]map[string]interface{}{
		0: {"block_number": 0, "block_hash": "0xnew", "status": "ACCEPTED_ON_L2"},
	}
	c, store := newPurgeCrawler(t, live)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutBlock(&types.Block{ID: 0, Hash: "0xold", Status: "PENDING"})
	}))

	_, err := c.purgeSweep(context.Background(), true)
	require.NoError(t, err)

	require.NoError(t, store.View(func(tx storage.Tx) error {
		b, err := tx.GetBlock(0)
		require.NoError(t, err)
		require.Equal(t, "0xold", b.Hash) // untouched
		return nil
	}))
}
