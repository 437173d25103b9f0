package interpreter

import (
	"errors"
	"fmt"

	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/fluence-xyz/indexer/pkg/types"
)

// kindERC721 is the on-chain contract-kind discriminant used by
// register_contract's calldata (contracts/fluence.py's ContractKind);
// anything else (kindERC20 == 1) is fungible.
const kindERC721 = 2

// errInvariantViolation is §7's "invariant violation" error kind: a
// re-registration whose fungibility or minter doesn't match the
// existing row, or a transfer whose calldata disagrees with the
// recorded owner. It aborts the whole block's transaction (§5, §7).
var errInvariantViolation = errors.New("interpreter: invariant violation")

func (it *Interpreter) handleRegisterContract(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 4)
	if err != nil {
		return err
	}
	_, contractField, kindField, mintField := fields[0], fields[1], fields[2], fields[3]

	contractAddress, err := types.ChecksumAddress(contractField)
	if err != nil {
		return err
	}
	kind, err := decimalInt(kindField)
	if err != nil {
		return err
	}
	fungible := kind.Int64() != kindERC721
	mint, err := decimal(mintField)
	if err != nil {
		return err
	}

	existing, err := txc.tx.GetTokenContract(contractAddress)
	if err == nil {
		return it.assertRegistration(txc, existing, fungible, mint)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	minter, err := liftAccount(txc, mintField, "")
	if err != nil {
		return err
	}
	blueprint := &types.Blueprint{ID: contractAddress, MinterStarkKey: minter.StarkKey}
	if err := txc.tx.PutBlueprint(blueprint); err != nil {
		return err
	}

	tokenContract := &types.TokenContract{
		Address:     contractAddress,
		Fungible:    fungible,
		BlueprintID: &blueprint.ID,
	}
	liftContract(txc, tokenContract)
	return txc.tx.PutTokenContract(tokenContract)
}

func (it *Interpreter) assertRegistration(txc *txContext, existing *types.TokenContract, fungible bool, mint string) error {
	if existing.Fungible != fungible {
		return fmt.Errorf("%w: %s re-registered with mismatched fungibility", errInvariantViolation, existing.Address)
	}
	if existing.BlueprintID == nil {
		return fmt.Errorf("%w: %s has no blueprint to check minter against", errInvariantViolation, existing.Address)
	}
	blueprint, err := txc.tx.GetBlueprint(*existing.BlueprintID)
	if err != nil {
		return err
	}
	if blueprint.MinterStarkKey != mint {
		return fmt.Errorf("%w: %s re-registered with mismatched minter", errInvariantViolation, existing.Address)
	}
	return nil
}

func (it *Interpreter) handleRegisterClient(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 3)
	if err != nil {
		return err
	}
	_, err = liftAccount(txc, fields[0], fields[1])
	return err
}

func (it *Interpreter) handleMint(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 4)
	if err != nil {
		return err
	}
	user, tokenIDField, contractField := fields[0], fields[1], fields[2]

	token, err := liftToken(txc, tokenIDField, contractField)
	if err != nil || token == nil {
		return err
	}
	account, err := liftAccount(txc, user, "")
	if err != nil {
		return err
	}
	token.OwnerStarkKey = &account.StarkKey
	token.LatestTxHash = txc.transaction.Hash
	return txc.tx.PutToken(token)
}

func (it *Interpreter) handleWithdraw(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 5)
	if err != nil {
		return err
	}
	_, amountOrID, contractField := fields[0], fields[1], fields[2]

	token, err := liftToken(txc, amountOrID, contractField)
	if err != nil || token == nil {
		return err
	}
	token.OwnerStarkKey = nil
	token.LatestTxHash = txc.transaction.Hash
	return txc.tx.PutToken(token)
}

func (it *Interpreter) handleDeposit(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 5)
	if err != nil {
		return err
	}
	_, user, amountOrID, contractField := fields[0], fields[1], fields[2], fields[3]

	account, err := liftAccount(txc, user, "")
	if err != nil {
		return err
	}
	token, err := liftToken(txc, amountOrID, contractField)
	if err != nil || token == nil {
		return err
	}
	token.OwnerStarkKey = &account.StarkKey
	token.LatestTxHash = txc.transaction.Hash
	return txc.tx.PutToken(token)
}

func (it *Interpreter) handleTransfer(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 5)
	if err != nil {
		return err
	}
	from, to, amountOrTokenID, contractField := fields[0], fields[1], fields[2], fields[3]

	fromAccount, err := liftAccount(txc, from, "")
	if err != nil {
		return err
	}
	toAccount, err := liftAccount(txc, to, "")
	if err != nil {
		return err
	}
	token, err := liftToken(txc, amountOrTokenID, contractField)
	if err != nil || token == nil {
		return err
	}

	if token.OwnerStarkKey == nil || *token.OwnerStarkKey != fromAccount.StarkKey {
		return fmt.Errorf("%w: transfer of %s/%s not from its recorded owner", errInvariantViolation, token.ContractAddress, token.TokenID)
	}

	token.OwnerStarkKey = &toAccount.StarkKey
	token.LatestTxHash = txc.transaction.Hash
	return txc.tx.PutToken(token)
}

func (it *Interpreter) handleCreateOrder(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 7)
	if err != nil {
		return err
	}
	orderIDField, user, bidField, baseContract, baseTokenID, quoteContractField, quoteAmountField := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

	account, err := liftAccount(txc, user, "")
	if err != nil {
		return err
	}
	token, err := liftToken(txc, baseTokenID, baseContract)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("interpreter: create_order on a fungible base contract")
	}

	quoteContract, err := types.ChecksumAddress(quoteContractField)
	if err != nil {
		return err
	}
	if _, err := txc.tx.GetTokenContract(quoteContract); err != nil {
		return err
	}

	orderID, err := decimal(orderIDField)
	if err != nil {
		return err
	}
	bid, err := decimalInt(bidField)
	if err != nil {
		return err
	}
	quoteAmount, err := decimal(quoteAmountField)
	if err != nil {
		return err
	}

	order := &types.LimitOrder{
		OrderID:         orderID,
		UserStarkKey:    account.StarkKey,
		Bid:             bid.Int64() == 1, // LimitOrder.Side: ASK=0, BID=1
		ContractAddress: token.ContractAddress,
		TokenID:         token.TokenID,
		QuoteContract:   quoteContract,
		QuoteAmount:     quoteAmount,
		TxHash:          txc.transaction.Hash,
		Fulfilled:       types.OrderNew,
	}
	if err := txc.tx.PutLimitOrder(order); err != nil {
		return err
	}

	token.AskOrderID = &order.OrderID
	return txc.tx.PutToken(token)
}

func (it *Interpreter) handleFulfillOrder(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 3)
	if err != nil {
		return err
	}
	orderIDField, user := fields[0], fields[1]

	orderID, err := decimal(orderIDField)
	if err != nil {
		return err
	}
	order, err := txc.tx.GetLimitOrder(orderID)
	if err != nil {
		return err
	}
	closedTx := txc.transaction.Hash
	order.ClosedTxHash = &closedTx
	order.Fulfilled = types.OrderFulfilled

	token, err := txc.tx.GetToken(order.ContractAddress, order.TokenID)
	if err != nil {
		return err
	}
	token.LatestTxHash = txc.transaction.Hash
	token.AskOrderID = nil
	if order.Bid {
		token.OwnerStarkKey = &order.UserStarkKey
	} else {
		account, err := liftAccount(txc, user, "")
		if err != nil {
			return err
		}
		token.OwnerStarkKey = &account.StarkKey
	}

	if err := txc.tx.PutToken(token); err != nil {
		return err
	}
	return txc.tx.PutLimitOrder(order)
}

func (it *Interpreter) handleCancelOrder(txc *txContext) error {
	fields, err := take(txc.transaction.Calldata, 2)
	if err != nil {
		return err
	}
	orderID, err := decimal(fields[0])
	if err != nil {
		return err
	}

	order, err := txc.tx.GetLimitOrder(orderID)
	if err != nil {
		return err
	}
	closedTx := txc.transaction.Hash
	order.ClosedTxHash = &closedTx
	order.Fulfilled = types.OrderCancelled

	token, err := txc.tx.GetToken(order.ContractAddress, order.TokenID)
	if err != nil {
		return err
	}
	token.AskOrderID = nil

	if err := txc.tx.PutToken(token); err != nil {
		return err
	}
	return txc.tx.PutLimitOrder(order)
}
