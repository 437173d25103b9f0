package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/metrics"
	"github.com/fluence-xyz/indexer/pkg/storage"
)

// purgeBatchSize is the number of non-terminal blocks considered per
// sweep (§4.4 "Purge batches of 20").
const purgeBatchSize = 20

// terminalStatuses are the feeder gateway statuses the purge pass
// considers settled and never revisits. Both ACCEPTED_ON_L1 and
// ACCEPTED_ONCHAIN are treated as terminal per the §9 open question —
// ACCEPTED_ONCHAIN may be a legacy alias for ACCEPTED_ON_L1, but nothing
// is lost by honoring both.
var terminalStatuses = map[string]bool{
	"ACCEPTED_ON_L1":   true,
	"ACCEPTED_ONCHAIN": true,
}

// Purge runs the reorg-repair pass (§4.4) until ctx is cancelled. It
// streams non-terminal blocks in ascending id order, batches of
// purgeBatchSize, re-fetching each one's current document and either
// deleting it (hash changed or status is ABORTED) or refreshing the
// stored document in place. A per-item BadRequest is tolerated: the
// first offending id in a sweep becomes the resume point for the next
// one, so a transient gateway hiccup doesn't stall the whole pass.
func (c *Crawler) Purge(ctx context.Context, dryRun bool) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		progressed, err := c.purgeSweep(ctx, dryRun)
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

func (c *Crawler) purgeSweep(ctx context.Context, dryRun bool) (bool, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PurgeCycleDuration)

	candidates, err := c.nonTerminalBlockIDs(c.purgeResume, purgeBatchSize)
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 {
		return false, nil
	}

	var firstErrID uint64
	sawBadRequest := false
	progressed := false
	for _, id := range candidates {
		if ctx.Err() != nil {
			return progressed, nil
		}
		err := c.purgeOne(ctx, id, dryRun)
		if err != nil {
			if errors.Is(err, chainclient.ErrBadRequest) {
				if !sawBadRequest {
					firstErrID = id
					sawBadRequest = true
				}
				continue
			}
			return progressed, err
		}
		progressed = true
	}

	if sawBadRequest {
		c.purgeResume = firstErrID
	} else {
		c.purgeResume = candidates[len(candidates)-1] + 1
	}
	return progressed, nil
}

// nonTerminalBlockIDs scans persisted blocks ascending from fromID,
// returning up to limit ids whose stored status is not terminal.
func (c *Crawler) nonTerminalBlockIDs(fromID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := c.store.View(func(tx storage.Tx) error {
		highest, ok, err := tx.HighestBlockID()
		if err != nil || !ok {
			return err
		}

		const scanWindow = 1000
		for from := fromID; from <= highest && len(ids) < limit; from += scanWindow {
			to := from + scanWindow - 1
			if to > highest {
				to = highest
			}
			window, err := tx.ListBlockIDsInRange(from, to)
			if err != nil {
				return err
			}
			for _, id := range window {
				block, err := tx.GetBlock(id)
				if err != nil {
					return err
				}
				if !terminalStatuses[block.Status] {
					ids = append(ids, id)
					if len(ids) >= limit {
						break
					}
				}
			}
		}
		return nil
	})
	return ids, err
}

func (c *Crawler) purgeOne(ctx context.Context, id uint64, dryRun bool) error {
	var storedHash string
	err := c.store.View(func(tx storage.Tx) error {
		block, err := tx.GetBlock(id)
		if err != nil {
			return err
		}
		storedHash = block.Hash
		return nil
	})
	if err != nil {
		return err
	}

	fresh, _, err := c.client.GetBlockByNumber(ctx, id)
	if err != nil {
		return err
	}

	if fresh.Hash != storedHash || fresh.Status == "ABORTED" {
		c.logger.Warn().Uint64("block_id", id).Str("old_hash", storedHash).Str("new_hash", fresh.Hash).
			Str("status", fresh.Status).Msg("reorg detected, purging block")
		if dryRun {
			return nil
		}
		if err := c.store.Update(func(tx storage.Tx) error {
			return tx.DeleteBlock(id)
		}); err != nil {
			return err
		}
		metrics.BlocksPurgedTotal.Inc()
		return nil
	}

	c.logger.Debug().Uint64("block_id", id).Str("status", fresh.Status).Msg("refreshing block document")
	if dryRun {
		return nil
	}
	return c.store.Update(func(tx storage.Tx) error {
		return tx.RefreshBlock(fresh)
	})
}
