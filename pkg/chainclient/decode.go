package chainclient

import (
	"encoding/json"

	"github.com/fluence-xyz/indexer/pkg/types"
)

// rawTransaction is the feeder gateway's wire shape for one block
// transaction. DEPLOY transactions carry their arguments in
// constructor_calldata instead of calldata; every other transaction
// type uses calldata.
type rawTransaction struct {
	TransactionHash     string   `json:"transaction_hash"`
	Type                string   `json:"type"`
	ContractAddress     string   `json:"contract_address"`
	EntryPointSelector  string   `json:"entry_point_selector"`
	EntryPointType      string   `json:"entry_point_type"`
	Calldata            []string `json:"calldata"`
	ConstructorCalldata []string `json:"constructor_calldata"`
}

// DecodeTransactions parses the raw transaction array from a block
// document into typed Transaction rows, indexed by their position in
// the block.
func DecodeTransactions(blockID uint64, raw json.RawMessage) ([]*types.Transaction, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rawTxs []rawTransaction
	if err := json.Unmarshal(raw, &rawTxs); err != nil {
		return nil, err
	}

	txs := make([]*types.Transaction, 0, len(rawTxs))
	for i, rt := range rawTxs {
		t := &types.Transaction{
			Hash:               rt.TransactionHash,
			BlockID:            blockID,
			TxIndex:            i,
			ContractAddress:    rt.ContractAddress,
			EntryPointSelector: rt.EntryPointSelector,
			EntryPointType:     rt.EntryPointType,
		}
		switch rt.Type {
		case string(types.TxTypeDeploy):
			t.Type = types.TxTypeDeploy
			t.ConstructorCalldata = rt.ConstructorCalldata
		default:
			t.Type = types.TxTypeInvokeFunction
			t.Calldata = rt.Calldata
		}
		txs = append(txs, t)
	}
	return txs, nil
}
