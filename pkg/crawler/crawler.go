package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluence-xyz/indexer/pkg/blockcache"
	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/fluence-xyz/indexer/pkg/metrics"
	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
	"github.com/rs/zerolog"
)

// directionForward and directionBackfill label the BlocksPersistedTotal
// counter, matching the two cursors this crawler drives.
const (
	directionForward  = "forward"
	directionBackfill = "backfill"
)

// Crawler drives the forward and backfill cursors described in §4.4. It
// holds no state the caller must synchronize: Run owns both cursors for
// the lifetime of one process, and a restart recomputes them from the
// store's persisted high/low watermarks.
type Crawler struct {
	client *chainclient.Client
	store  storage.Store
	cache  *blockcache.Cache

	cooldown     time.Duration
	pollInterval time.Duration

	forward          uint64
	backfill         uint64
	cooldownDeadline time.Time
	live             bool // true when running without a --thru bound, i.e. forward tip-follows
	purgeResume      uint64 // next block id Purge will consider; advances past each sweep

	logger zerolog.Logger
}

// Config bounds the crawler's timing knobs; cooldown is how long to back
// off after a BadRequest on the forward cursor (the tip not existing
// yet), pollInterval is how long to sleep once both cursors are
// momentarily exhausted (forward in cooldown, backfill at genesis).
type Config struct {
	Cooldown     time.Duration
	PollInterval time.Duration
}

// New constructs a Crawler. Init must be called once before Run.
func New(client *chainclient.Client, store storage.Store, cfg Config) *Crawler {
	return &Crawler{
		client:       client,
		store:        store,
		cache:        blockcache.New(store),
		cooldown:     cfg.Cooldown,
		pollInterval: cfg.PollInterval,
		logger:       log.WithComponent("crawler"),
	}
}

// Init seeds the forward and backfill cursors (§4.4 step 1). If thru is
// non-empty it is resolved as a block hash and both cursors start one
// past that block's number, and the crawler runs in bounded mode (no
// tip-following, only backfill down from thru and never above it). If
// thru is empty, the crawler runs live: forward resumes from the
// store's highest persisted id + 1 (0 if the store is empty) and
// backfill resumes from the lowest persisted id (0 if the store is
// empty, meaning "nothing to backfill").
func (c *Crawler) Init(ctx context.Context, thru string) error {
	if thru != "" {
		block, _, err := c.client.GetBlockByHash(ctx, thru)
		if err != nil {
			return fmt.Errorf("crawler: resolve --thru %s: %w", thru, err)
		}
		c.forward = block.ID + 1
		c.backfill = block.ID + 1
		c.live = false
		c.logger.Info().Uint64("block_id", block.ID).Msg("resolved --thru hash")
		return nil
	}

	var highest, lowest uint64
	var haveHighest, haveLowest bool
	err := c.store.View(func(tx storage.Tx) error {
		var err error
		highest, haveHighest, err = tx.HighestBlockID()
		if err != nil {
			return err
		}
		lowest, haveLowest, err = tx.LowestBlockID()
		return err
	})
	if err != nil {
		return err
	}

	c.live = true
	if haveHighest {
		c.forward = highest + 1
	}
	if haveLowest {
		c.backfill = lowest
	}
	return nil
}

// Run executes the algorithm in §4.4 step 2 until ctx is cancelled. A
// BadRequest from the gateway is absorbed (into the cooldown on the
// forward cursor, into the poll sleep on the backfill cursor); any other
// error from a tick, whether a store failure or a chain error that
// outlasted the client's single retry, ends Run and is returned.
func (c *Crawler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info().Msg("crawler stopped")
			return nil
		}

		progressed, err := c.tick(ctx)
		if err != nil {
			return err
		}
		if progressed {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.pollInterval):
		}
	}
}

// tick performs one iteration of §4.4 step 2 and reports whether it made
// forward progress (so Run can avoid sleeping between busy iterations).
func (c *Crawler) tick(ctx context.Context) (bool, error) {
	metrics.CrawlerForwardBlock.Set(float64(c.forward))
	metrics.CrawlerBackfillBlock.Set(float64(c.backfill))

	if c.live && time.Now().After(c.cooldownDeadline) {
		metrics.CrawlerInCooldown.Set(0)
		err := c.crawl(ctx, c.forward, directionForward)
		switch {
		case err == nil:
			c.forward++
			return true, nil
		case errors.Is(err, chainclient.ErrBadRequest):
			c.cooldownDeadline = time.Now().Add(c.cooldown)
			metrics.CrawlerInCooldown.Set(1)
		default:
			return false, err
		}
	}

	if c.backfill > 0 {
		err := c.crawl(ctx, c.backfill-1, directionBackfill)
		if err != nil && errors.Is(err, chainclient.ErrBadRequest) {
			// Historical blocks always exist once the chain has produced
			// them; a BadRequest here means the gateway is transiently
			// unavailable, not that the block doesn't exist. Don't
			// advance the cursor, just fall through to the poll sleep.
			return false, nil
		}
		if err != nil {
			return false, err
		}
		c.backfill--
		return true, nil
	}

	return false, nil
}

// crawl implements §4.4 step 3: skip already-persisted blocks via the
// cache, otherwise fetch and persist.
func (c *Crawler) crawl(ctx context.Context, n uint64, direction string) error {
	hit, err := c.cache.Hit(n)
	if err != nil {
		return fmt.Errorf("crawler: cache lookup for block %d: %w", n, err)
	}
	if hit {
		return nil
	}

	timer := metrics.NewTimer()
	block, rawTxs, err := c.client.GetBlockByNumber(ctx, n)
	timer.ObserveDuration(metrics.BlockFetchDuration)
	if err != nil {
		return err
	}

	txs, err := chainclient.DecodeTransactions(block.ID, rawTxs)
	if err != nil {
		return fmt.Errorf("crawler: decode transactions for block %d: %w", n, err)
	}

	applyTimer := metrics.NewTimer()
	err = c.store.Update(func(tx storage.Tx) error {
		return PersistBlock(tx, block, txs)
	})
	applyTimer.ObserveDuration(metrics.BlockApplyDuration)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// §7: a unique-constraint conflict on block insertion means the
		// block is already persisted and the cache's window was stale.
		// Nothing is written; the attempt counts as done, so the cursor
		// moves past the block instead of retrying the insert.
		c.logger.Warn().Uint64("block_id", n).Msg("block already persisted, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	metrics.BlocksPersistedTotal.WithLabelValues(direction).Inc()
	log.WithBlockID(block.ID).Info().Str("direction", direction).Msg("persisted block")
	return nil
}

// PersistBlock writes block and every transaction in txs atomically,
// de-duplicating StarkContract rows by address along the way (§4.2).
// The purge pass does not use it: it refreshes a block in place through
// Tx.RefreshBlock instead.
func PersistBlock(tx storage.Tx, block *types.Block, txs []*types.Transaction) error {
	if err := tx.PutBlock(block); err != nil {
		return err
	}
	seen := make(map[string]bool, len(txs))
	for _, t := range txs {
		if !seen[t.ContractAddress] {
			seen[t.ContractAddress] = true
			if _, err := tx.GetContract(t.ContractAddress); errors.Is(err, storage.ErrNotFound) {
				if err := tx.PutContract(&types.StarkContract{Address: t.ContractAddress}); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}
		if err := tx.PutTransaction(t); err != nil {
			return err
		}
	}
	return nil
}
