package storage

import (
	"github.com/fluence-xyz/indexer/pkg/types"
)

// Tx exposes the store's entity operations scoped to a single underlying
// database transaction. Every write a caller makes through a Tx is
// committed — or, on any error returned from the Update callback, rolled
// back — as one atomic unit. The crawler uses this to persist a block and
// all of its transactions together; the interpreter uses it to apply
// every handler invoked while interpreting one block for one contract,
// so a failing handler never leaves the semantic store half-updated.
type Tx interface {
	// Blocks
	PutBlock(block *types.Block) error
	GetBlock(id uint64) (*types.Block, error)
	GetBlockByHash(hash string) (*types.Block, error)
	// RefreshBlock overwrites a previously-persisted block's hash,
	// timestamp and document in place, without touching its
	// transactions. Used only by the purge pass (§4.4) when the chain's
	// current document for a still-valid block differs from what was
	// stored; PutBlock refuses this because it enforces the normal
	// "a block id is written once" invariant.
	RefreshBlock(block *types.Block) error
	DeleteBlock(id uint64) error
	ListBlockIDsInRange(fromID, toID uint64) ([]uint64, error)
	// HighestBlockID and LowestBlockID report the max/min persisted block
	// id, used to resume the crawler's forward and backfill cursors after
	// a restart. ok is false when the block store is empty.
	HighestBlockID() (id uint64, ok bool, err error)
	LowestBlockID() (id uint64, ok bool, err error)

	// Transactions
	PutTransaction(transaction *types.Transaction) error
	GetTransactionByHash(hash string) (*types.Transaction, error)
	ListTransactionsByBlock(blockID uint64) ([]*types.Transaction, error)
	// ListContractTransactionsFrom returns every transaction addressed to
	// contractAddress at or after fromBlockID, ordered by (block_id,
	// transaction_index) ascending.
	ListContractTransactionsFrom(contractAddress string, fromBlockID uint64, limit int) ([]*types.Transaction, error)

	// Contracts (interpreter cursor state)
	PutContract(contract *types.StarkContract) error
	GetContract(address string) (*types.StarkContract, error)

	// Semantic store
	PutAccount(account *types.Account) error
	GetAccount(starkKey string) (*types.Account, error)

	PutBlueprint(blueprint *types.Blueprint) error
	GetBlueprint(id string) (*types.Blueprint, error)

	PutTokenContract(contract *types.TokenContract) error
	GetTokenContract(address string) (*types.TokenContract, error)

	PutToken(token *types.Token) error
	GetToken(contractAddress, tokenID string) (*types.Token, error)

	PutLimitOrder(order *types.LimitOrder) error
	GetLimitOrder(orderID string) (*types.LimitOrder, error)
}

// Store is the persistence interface for both the block store (§4.2) and
// the semantic store (§4.6's entities). Update runs fn inside a
// read-write transaction; View runs it inside a read-only one.
type Store interface {
	Update(fn func(Tx) error) error
	View(fn func(Tx) error) error
	Close() error
}

// ErrNotFound is returned by Tx getters when the requested key does not
// exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

// ErrAlreadyExists is returned when a put would violate a primary-key
// uniqueness constraint the caller asked to be enforced (blocks are
// never overwritten once persisted; a second PutBlock for the same id is
// always either a bug or an un-purged reorg).
var ErrAlreadyExists = alreadyExistsError{}

type alreadyExistsError struct{}

func (alreadyExistsError) Error() string { return "already exists" }
