package interpreter

import (
	"context"
	"testing"

	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/enrich"
	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
	"github.com/stretchr/testify/require"
)

const dappContract = "0xFluEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE1"

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedBlockWithTx(t *testing.T, store storage.Store, blockID uint64, txs ...*types.Transaction) {
	t.Helper()
	err := store.Update(func(tx storage.Tx) error {
		if err := tx.PutBlock(&types.Block{ID: blockID, Hash: "hash", Status: "ACCEPTED_ON_L2"}); err != nil {
			return err
		}
		for i, t := range txs {
			t.BlockID = blockID
			t.TxIndex = i
			if err := tx.PutTransaction(t); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func newInterpreter(store storage.Store) *Interpreter {
	client := chainclient.New("http://unused", "http://unused", 0)
	return New(store, client, enrich.NewFakeMetadataFetcher())
}

func TestMintTransferWithdrawNFT(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutContract(&types.StarkContract{Address: dappContract})
	}))

	tokenContractAddr := "0x4A26394f0656961aD1e872CbA9A3b1c4C8CaE7cE"
	checksummed, err := types.ChecksumAddress(tokenContractAddr)
	require.NoError(t, err)

	seedBlockWithTx(t, store, 100,
		&types.Transaction{Hash: "0xdeploy", Type: types.TxTypeDeploy, ContractAddress: dappContract},
		&types.Transaction{
			Hash: "0xregister", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("register_contract"),
			Calldata:           []string{"1", tokenContractAddr, "2", "555"},
		},
	)
	seedBlockWithTx(t, store, 101,
		&types.Transaction{
			Hash: "0xmint", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("mint"),
			Calldata:           []string{"1111", "2", tokenContractAddr, "0"},
		},
	)
	seedBlockWithTx(t, store, 102,
		&types.Transaction{
			Hash: "0xtransfer", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("transfer"),
			Calldata:           []string{"1111", "2222", "2", tokenContractAddr, "1"},
		},
	)
	seedBlockWithTx(t, store, 103,
		&types.Transaction{
			Hash: "0xwithdraw", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("withdraw"),
			Calldata:           []string{"2222", "2", tokenContractAddr, "0xL1addr", "2"},
		},
	)

	it := newInterpreter(store)
	ctx := context.Background()

	require.NoError(t, it.Tick(ctx, dappContract)) // block 100: deploy + register_contract
	var tc *types.TokenContract
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		tc, err = tx.GetTokenContract(checksummed)
		return err
	}))
	require.True(t, tc.Fungible == false)

	require.NoError(t, it.Tick(ctx, dappContract)) // block 101: mint
	var token *types.Token
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		token, err = tx.GetToken(checksummed, "2")
		return err
	}))
	require.NotNil(t, token.OwnerStarkKey)
	require.Equal(t, "1111", *token.OwnerStarkKey)

	require.NoError(t, it.Tick(ctx, dappContract)) // block 102: transfer
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		token, err = tx.GetToken(checksummed, "2")
		return err
	}))
	require.Equal(t, "2222", *token.OwnerStarkKey)

	require.NoError(t, it.Tick(ctx, dappContract)) // block 103: withdraw
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		token, err = tx.GetToken(checksummed, "2")
		return err
	}))
	require.Nil(t, token.OwnerStarkKey)

	var contract *types.StarkContract
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		contract, err = tx.GetContract(dappContract)
		return err
	}))
	require.Equal(t, uint64(104), *contract.BlockCounter)
}

func TestTransferFromWrongOwnerIsInvariantViolation(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutContract(&types.StarkContract{Address: dappContract})
	}))

	tokenContractAddr := "0x4A26394f0656961aD1e872CbA9A3b1c4C8CaE7cE"
	seedBlockWithTx(t, store, 200,
		&types.Transaction{Hash: "0xdeploy2", Type: types.TxTypeDeploy, ContractAddress: dappContract},
		&types.Transaction{
			Hash: "0xregister2", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("register_contract"),
			Calldata:           []string{"1", tokenContractAddr, "2", "555"},
		},
		&types.Transaction{
			Hash: "0xmint2", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("mint"),
			Calldata:           []string{"1111", "9", tokenContractAddr, "0"},
		},
		&types.Transaction{
			Hash: "0xbadtransfer", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("transfer"),
			Calldata:           []string{"9999", "2222", "9", tokenContractAddr, "1"}, // 9999 never owned token 9
		},
	)

	it := newInterpreter(store)
	err := it.Tick(context.Background(), dappContract)
	require.Error(t, err)

	// the cursor must not have advanced: the whole block rolled back.
	var contract *types.StarkContract
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		contract, err = tx.GetContract(dappContract)
		return err
	}))
	require.Equal(t, uint64(200), *contract.BlockCounter)
}

func TestCreateFulfillOrder(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return tx.PutContract(&types.StarkContract{Address: dappContract})
	}))

	baseContract := "0x4A26394f0656961aD1e872CbA9A3b1c4C8CaE7cE"
	quoteContract := "0x99"
	quoteChecksum, err := types.ChecksumAddress(quoteContract)
	require.NoError(t, err)

	seedBlockWithTx(t, store, 300,
		&types.Transaction{Hash: "0xdeploy3", Type: types.TxTypeDeploy, ContractAddress: dappContract},
		&types.Transaction{
			Hash: "0xregisterbase", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("register_contract"),
			Calldata:           []string{"1", baseContract, "2", "1"},
		},
		&types.Transaction{
			Hash: "0xregisterquote", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("register_contract"),
			Calldata:           []string{"1", quoteContract, "1", "1"},
		},
		&types.Transaction{
			Hash: "0xmintbase", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("mint"),
			Calldata:           []string{"1111", "3", baseContract, "0"},
		},
		&types.Transaction{
			Hash: "0xcreate", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("create_order"),
			Calldata:           []string{"13", "1111", "1", baseContract, "3", quoteContract, "1000"},
		},
	)
	seedBlockWithTx(t, store, 301,
		&types.Transaction{
			Hash: "0xfulfill", Type: types.TxTypeInvokeFunction, ContractAddress: dappContract,
			EntryPointSelector: selectorFromName("fulfill_order"),
			Calldata:           []string{"13", "2222", "1"},
		},
	)

	it := newInterpreter(store)
	ctx := context.Background()
	require.NoError(t, it.Tick(ctx, dappContract))

	var order *types.LimitOrder
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		order, err = tx.GetLimitOrder("13")
		return err
	}))
	require.Equal(t, types.OrderNew, order.Fulfilled)
	require.Equal(t, quoteChecksum, order.QuoteContract)

	require.NoError(t, it.Tick(ctx, dappContract))
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		order, err = tx.GetLimitOrder("13")
		return err
	}))
	require.Equal(t, types.OrderFulfilled, order.Fulfilled)
	require.NotNil(t, order.ClosedTxHash)

	baseChecksum, err := types.ChecksumAddress(baseContract)
	require.NoError(t, err)
	var token *types.Token
	require.NoError(t, store.View(func(tx storage.Tx) error {
		var err error
		token, err = tx.GetToken(baseChecksum, "3")
		return err
	}))
	require.Equal(t, "1111", *token.OwnerStarkKey) // bid=true: owner <- order.user
	require.Nil(t, token.AskOrderID)
}
