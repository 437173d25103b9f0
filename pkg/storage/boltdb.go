package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/fluence-xyz/indexer/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketBlocks             = []byte("blocks")
	bucketBlocksByHash       = []byte("blocks_by_hash")
	bucketTransactions       = []byte("transactions")
	bucketTransactionsByHash = []byte("transactions_by_hash")
	bucketContractTxIndex    = []byte("contract_tx_index")
	bucketContracts          = []byte("contracts")
	bucketAccounts           = []byte("accounts")
	bucketBlueprints         = []byte("blueprints")
	bucketTokenContracts     = []byte("token_contracts")
	bucketTokens             = []byte("tokens")
	bucketLimitOrders        = []byte("limit_orders")

	allBuckets = [][]byte{
		bucketBlocks,
		bucketBlocksByHash,
		bucketTransactions,
		bucketTransactionsByHash,
		bucketContractTxIndex,
		bucketContracts,
		bucketAccounts,
		bucketBlueprints,
		bucketTokenContracts,
		bucketTokens,
		bucketLimitOrders,
	}
)

// BoltStore implements Store using an embedded BoltDB file. Each entity
// type has its own bucket; secondary indexes (block hash, transaction
// hash, a contract's transactions in block order) are maintained by hand
// alongside the primary row on every write, the same way boltdb-backed
// cluster state keeps a name index next to the ID-keyed primary bucket.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) the BoltDB file under
// dataDir and ensures every bucket this store uses exists.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "fluence.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Update runs fn inside a read-write transaction. A returned error rolls
// back every write fn made.
func (s *BoltStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// View runs fn inside a read-only transaction.
func (s *BoltStore) View(fn func(Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// boltTx adapts one *bolt.Tx to the Tx interface.
type boltTx struct {
	tx *bolt.Tx
}

func encodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func decodeUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func encodeUint32(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

// transactionKey orders transactions first by block, then by their
// position within the block, so a bucket range scan naturally yields
// ascending transaction_index order within each block.
func transactionKey(blockID uint64, txIndex int) []byte {
	key := make([]byte, 12)
	copy(key[0:8], encodeUint64(blockID))
	copy(key[8:12], encodeUint32(uint32(txIndex)))
	return key
}

func contractTxIndexKey(contractAddress string, blockID uint64, txIndex int) []byte {
	key := make([]byte, 0, len(contractAddress)+1+12)
	key = append(key, []byte(contractAddress)...)
	key = append(key, 0) // NUL separator; contract addresses never contain it
	key = append(key, transactionKey(blockID, txIndex)...)
	return key
}

func tokenKey(contractAddress, tokenID string) []byte {
	return []byte(contractAddress + "/" + tokenID)
}

// --- Blocks ---

func (b *boltTx) PutBlock(block *types.Block) error {
	blocks := b.tx.Bucket(bucketBlocks)
	key := encodeUint64(block.ID)
	if blocks.Get(key) != nil {
		return ErrAlreadyExists
	}
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	if err := blocks.Put(key, data); err != nil {
		return err
	}
	return b.tx.Bucket(bucketBlocksByHash).Put([]byte(block.Hash), key)
}

func (b *boltTx) GetBlock(id uint64) (*types.Block, error) {
	data := b.tx.Bucket(bucketBlocks).Get(encodeUint64(id))
	if data == nil {
		return nil, ErrNotFound
	}
	var block types.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// RefreshBlock overwrites the stored row for block.ID in place, updating
// the hash index if the hash changed, without touching any transaction
// rows.
func (b *boltTx) RefreshBlock(block *types.Block) error {
	blocks := b.tx.Bucket(bucketBlocks)
	key := encodeUint64(block.ID)
	existing := blocks.Get(key)
	if existing == nil {
		return ErrNotFound
	}
	var old types.Block
	if err := json.Unmarshal(existing, &old); err != nil {
		return err
	}

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	if err := blocks.Put(key, data); err != nil {
		return err
	}
	if old.Hash != block.Hash {
		byHash := b.tx.Bucket(bucketBlocksByHash)
		if err := byHash.Delete([]byte(old.Hash)); err != nil {
			return err
		}
		if err := byHash.Put([]byte(block.Hash), key); err != nil {
			return err
		}
	}
	return nil
}

func (b *boltTx) GetBlockByHash(hash string) (*types.Block, error) {
	key := b.tx.Bucket(bucketBlocksByHash).Get([]byte(hash))
	if key == nil {
		return nil, ErrNotFound
	}
	return b.GetBlock(decodeUint64(key))
}

func (b *boltTx) DeleteBlock(id uint64) error {
	blocks := b.tx.Bucket(bucketBlocks)
	key := encodeUint64(id)
	data := blocks.Get(key)
	if data == nil {
		return nil
	}
	var block types.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return err
	}

	txs, err := b.ListTransactionsByBlock(id)
	if err != nil {
		return err
	}
	txBucket := b.tx.Bucket(bucketTransactions)
	txByHash := b.tx.Bucket(bucketTransactionsByHash)
	contractIdx := b.tx.Bucket(bucketContractTxIndex)
	for _, t := range txs {
		if err := txBucket.Delete(transactionKey(t.BlockID, t.TxIndex)); err != nil {
			return err
		}
		if err := txByHash.Delete([]byte(t.Hash)); err != nil {
			return err
		}
		if err := contractIdx.Delete(contractTxIndexKey(t.ContractAddress, t.BlockID, t.TxIndex)); err != nil {
			return err
		}
	}

	if err := b.tx.Bucket(bucketBlocksByHash).Delete([]byte(block.Hash)); err != nil {
		return err
	}
	return blocks.Delete(key)
}

func (b *boltTx) ListBlockIDsInRange(fromID, toID uint64) ([]uint64, error) {
	var ids []uint64
	c := b.tx.Bucket(bucketBlocks).Cursor()
	for k, _ := c.Seek(encodeUint64(fromID)); k != nil; k, _ = c.Next() {
		id := decodeUint64(k)
		if id > toID {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *boltTx) HighestBlockID() (uint64, bool, error) {
	k, _ := b.tx.Bucket(bucketBlocks).Cursor().Last()
	if k == nil {
		return 0, false, nil
	}
	return decodeUint64(k), true, nil
}

func (b *boltTx) LowestBlockID() (uint64, bool, error) {
	k, _ := b.tx.Bucket(bucketBlocks).Cursor().First()
	if k == nil {
		return 0, false, nil
	}
	return decodeUint64(k), true, nil
}

// --- Transactions ---

func (b *boltTx) PutTransaction(transaction *types.Transaction) error {
	data, err := json.Marshal(transaction)
	if err != nil {
		return err
	}
	key := transactionKey(transaction.BlockID, transaction.TxIndex)
	if err := b.tx.Bucket(bucketTransactions).Put(key, data); err != nil {
		return err
	}
	if err := b.tx.Bucket(bucketTransactionsByHash).Put([]byte(transaction.Hash), key); err != nil {
		return err
	}
	idxKey := contractTxIndexKey(transaction.ContractAddress, transaction.BlockID, transaction.TxIndex)
	return b.tx.Bucket(bucketContractTxIndex).Put(idxKey, []byte(transaction.Hash))
}

func (b *boltTx) GetTransactionByHash(hash string) (*types.Transaction, error) {
	key := b.tx.Bucket(bucketTransactionsByHash).Get([]byte(hash))
	if key == nil {
		return nil, ErrNotFound
	}
	data := b.tx.Bucket(bucketTransactions).Get(key)
	if data == nil {
		return nil, ErrNotFound
	}
	var t types.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *boltTx) ListTransactionsByBlock(blockID uint64) ([]*types.Transaction, error) {
	var txs []*types.Transaction
	c := b.tx.Bucket(bucketTransactions).Cursor()
	prefix := encodeUint64(blockID)
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		var t types.Transaction
		if err := json.Unmarshal(v, &t); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, nil
}

func (b *boltTx) ListContractTransactionsFrom(contractAddress string, fromBlockID uint64, limit int) ([]*types.Transaction, error) {
	var txs []*types.Transaction
	idx := b.tx.Bucket(bucketContractTxIndex)
	prefix := append([]byte(contractAddress), 0)
	startKey := contractTxIndexKey(contractAddress, fromBlockID, 0)

	c := idx.Cursor()
	for k, v := c.Seek(startKey); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		data := b.tx.Bucket(bucketTransactions).Get(k[len(prefix):])
		if data == nil {
			// secondary index stale relative to the primary bucket; skip
			_ = v
			continue
		}
		var t types.Transaction
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
		if limit > 0 && len(txs) >= limit {
			break
		}
	}
	return txs, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// --- Contracts ---

func (b *boltTx) PutContract(contract *types.StarkContract) error {
	data, err := json.Marshal(contract)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketContracts).Put([]byte(contract.Address), data)
}

func (b *boltTx) GetContract(address string) (*types.StarkContract, error) {
	data := b.tx.Bucket(bucketContracts).Get([]byte(address))
	if data == nil {
		return nil, ErrNotFound
	}
	var c types.StarkContract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Accounts ---

func (b *boltTx) PutAccount(account *types.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketAccounts).Put([]byte(account.StarkKey), data)
}

func (b *boltTx) GetAccount(starkKey string) (*types.Account, error) {
	data := b.tx.Bucket(bucketAccounts).Get([]byte(starkKey))
	if data == nil {
		return nil, ErrNotFound
	}
	var a types.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Blueprints ---

func (b *boltTx) PutBlueprint(blueprint *types.Blueprint) error {
	data, err := json.Marshal(blueprint)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketBlueprints).Put([]byte(blueprint.ID), data)
}

func (b *boltTx) GetBlueprint(id string) (*types.Blueprint, error) {
	data := b.tx.Bucket(bucketBlueprints).Get([]byte(id))
	if data == nil {
		return nil, ErrNotFound
	}
	var bp types.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// --- Token contracts ---

func (b *boltTx) PutTokenContract(contract *types.TokenContract) error {
	data, err := json.Marshal(contract)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketTokenContracts).Put([]byte(contract.Address), data)
}

func (b *boltTx) GetTokenContract(address string) (*types.TokenContract, error) {
	data := b.tx.Bucket(bucketTokenContracts).Get([]byte(address))
	if data == nil {
		return nil, ErrNotFound
	}
	var c types.TokenContract
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Tokens ---

func (b *boltTx) PutToken(token *types.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketTokens).Put(tokenKey(token.ContractAddress, token.TokenID), data)
}

func (b *boltTx) GetToken(contractAddress, tokenID string) (*types.Token, error) {
	data := b.tx.Bucket(bucketTokens).Get(tokenKey(contractAddress, tokenID))
	if data == nil {
		return nil, ErrNotFound
	}
	var t types.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Limit orders ---

func (b *boltTx) PutLimitOrder(order *types.LimitOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return b.tx.Bucket(bucketLimitOrders).Put([]byte(order.OrderID), data)
}

func (b *boltTx) GetLimitOrder(orderID string) (*types.LimitOrder, error) {
	data := b.tx.Bucket(bucketLimitOrders).Get([]byte(orderID))
	if data == nil {
		return nil, ErrNotFound
	}
	var o types.LimitOrder
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
