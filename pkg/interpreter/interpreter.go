package interpreter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/enrich"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/fluence-xyz/indexer/pkg/metrics"
	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
	"github.com/rs/zerolog"
)

// errMissingDependency signals §7's "missing dependency" error kind:
// the contract isn't registered yet, or the block its cursor points at
// hasn't been crawled yet. Tick absorbs this by sleeping and retrying
// on the caller's next invocation; it never advances the cursor.
var errMissingDependency = errors.New("interpreter: missing dependency")

// Interpreter applies one contract's transactions to the semantic
// store, one block at a time. It holds no per-contract state itself —
// block_counter lives in the StarkContract row — so a single
// Interpreter can drive any number of contracts sequentially, or
// multiple Interpreters can each drive one (§5: no ordering promise
// across contracts).
type Interpreter struct {
	store   storage.Store
	client  *chainclient.Client
	fetcher enrich.MetadataFetcher
	logger  zerolog.Logger
}

// New builds an Interpreter. fetcher is injected so callers can pass
// enrich.NewHTTPMetadataFetcher in production and
// enrich.NewFakeMetadataFetcher in tests.
func New(store storage.Store, client *chainclient.Client, fetcher enrich.MetadataFetcher) *Interpreter {
	return &Interpreter{
		store:   store,
		client:  client,
		fetcher: fetcher,
		logger:  log.WithComponent("interpreter"),
	}
}

// txContext bundles the per-handler-invocation state: the store
// transaction everything in this block commits through, the
// transaction being interpreted, and the collaborators lift_token
// needs. Handlers take *txContext instead of threading these five
// values through every call individually.
type txContext struct {
	ctx         context.Context
	tx          storage.Tx
	transaction *types.Transaction
	client      *chainclient.Client
	fetcher     enrich.MetadataFetcher
}

// EnsureNativeTokenContract bootstraps the synthetic zero-address
// "Ether" TokenContract the original service seeds before its
// interpreter loop starts (supplemented feature, §3 SPEC_FULL
// expansion). It is idempotent: a second call is a no-op.
func (it *Interpreter) EnsureNativeTokenContract(ctx context.Context) error {
	return it.store.Update(func(tx storage.Tx) error {
		if _, err := tx.GetTokenContract(types.ZeroAddress); err == nil {
			return nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.PutTokenContract(&types.TokenContract{
			Address:  types.ZeroAddress,
			Fungible: true,
			Name:     "Ether",
			Symbol:   "ETH",
			Decimals: 18,
		})
	})
}

// Tick implements §4.6 steps 1-4 for one contract: bootstrap the
// cursor from the DEPLOY transaction if needed, load the block the
// cursor points at, dispatch every transaction addressed to this
// contract in that block in transaction_index order, then advance the
// cursor by one — all inside a single store transaction, so a failing
// handler rolls back the whole block and the next Tick retries it from
// the beginning (§5, §7).
func (it *Interpreter) Tick(ctx context.Context, contractAddress string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.InterpretTickDuration)

	err := it.store.Update(func(tx storage.Tx) error {
		contract, err := tx.GetContract(contractAddress)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: contract %s not yet seen by the crawler", errMissingDependency, contractAddress)
		}
		if err != nil {
			return err
		}

		if contract.BlockCounter == nil {
			blockID, err := it.findDeployBlock(tx, contractAddress)
			if err != nil {
				return err
			}
			contract.BlockCounter = &blockID
			if err := tx.PutContract(contract); err != nil {
				return err
			}
		}

		blockID := *contract.BlockCounter
		if _, err := tx.GetBlock(blockID); errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: block %d not yet crawled", errMissingDependency, blockID)
		} else if err != nil {
			return err
		}

		txs, err := tx.ListContractTransactionsFrom(contractAddress, blockID, 0)
		if err != nil {
			return err
		}
		for _, t := range txs {
			if t.BlockID != blockID {
				break // ListContractTransactionsFrom is ascending; later blocks wait for a future tick
			}
			if err := it.dispatch(ctx, tx, t); err != nil {
				return fmt.Errorf("interpreter: tx %s: %w", t.Hash, err)
			}
		}

		next := blockID + 1
		contract.BlockCounter = &next
		metrics.InterpreterBlockCounter.WithLabelValues(contractAddress).Set(float64(next))
		return tx.PutContract(contract)
	})

	if errors.Is(err, errMissingDependency) {
		it.logger.Debug().Str("contract", contractAddress).Err(err).Msg("waiting on dependency")
		return nil
	}
	return err
}

func (it *Interpreter) findDeployBlock(tx storage.Tx, contractAddress string) (uint64, error) {
	txs, err := tx.ListContractTransactionsFrom(contractAddress, 0, 0)
	if err != nil {
		return 0, err
	}
	for _, t := range txs {
		if t.Type == types.TxTypeDeploy {
			return t.BlockID, nil
		}
	}
	return 0, fmt.Errorf("%w: no DEPLOY transaction observed yet for %s", errMissingDependency, contractAddress)
}

func (it *Interpreter) dispatch(ctx context.Context, tx storage.Tx, t *types.Transaction) error {
	handler, ok := selectorTable[t.EntryPointSelector]
	if !ok {
		return nil // unknown selector; the contract has entry points we don't semanticise (§4.5)
	}

	name := selectorNames[t.EntryPointSelector]
	txc := &txContext{ctx: ctx, tx: tx, transaction: t, client: it.client, fetcher: it.fetcher}

	it.logger.Info().Str("tx_hash", t.Hash).Str("selector", name).Msg("interpreting transaction")
	if err := handler(it, txc); err != nil {
		metrics.HandlerErrorsTotal.WithLabelValues(name).Inc()
		return err
	}
	metrics.TransactionsInterpretedTotal.WithLabelValues(name).Inc()
	return nil
}

// WaitInterval is how long the interpret and run CLI commands sleep
// after every Tick, whether it applied a block or waited on a missing
// dependency (§7); Tick does not report which of the two happened.
const WaitInterval = 15 * time.Second
