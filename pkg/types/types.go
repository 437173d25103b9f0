package types

import (
	"encoding/json"
	"math/big"
	"time"
)

// Block is one L2 block as returned by the feeder gateway, plus the
// bookkeeping fields the crawler needs to detect and repair reorgs.
type Block struct {
	ID        uint64
	Hash      string
	Status    string // PENDING, ACCEPTED_ON_L2, ACCEPTED_ONCHAIN, ACCEPTED_ON_L1, REJECTED
	Timestamp time.Time
	Document  json.RawMessage // the raw feeder gateway response, kept for re-derivation
}

// StarkContract tracks the interpreter's per-contract cursor. BlockCounter
// is nil until the contract's DEPLOY transaction has been observed and the
// cursor seeded.
type StarkContract struct {
	Address      string
	BlockCounter *uint64
}

// TxType distinguishes a contract deployment from a regular invocation.
type TxType string

const (
	TxTypeDeploy         TxType = "DEPLOY"
	TxTypeInvokeFunction TxType = "INVOKE_FUNCTION"
)

// Transaction is one transaction within a block, as persisted by the
// crawler and later read back by the interpreter in transaction_index
// order.
type Transaction struct {
	Hash               string
	BlockID            uint64
	TxIndex            int
	Type               TxType
	ContractAddress    string
	EntryPointSelector string
	EntryPointType     string
	Calldata           []string // decimal field-element strings, in on-chain order
	ConstructorCalldata []string // DEPLOY only
}

// Account is a registered L2 client, identified by its STARK public key.
// Address is the checksum Ethereum-style address supplied by the latest
// register_client call for this key; it is nil until one has been seen.
type Account struct {
	StarkKey string // decimal big.Int
	Address  *string
}

// Blueprint describes an authorized minting template for a non-fungible
// TokenContract. PermanentID and ExpireAt are optional; the interpreter's
// register_contract handler creates blueprints with both left nil.
type Blueprint struct {
	ID             string
	PermanentID    *string
	MinterStarkKey string
	ExpireAt       *time.Time
}

// TokenContract is a registered ERC-20/ERC-721-style facade contract.
type TokenContract struct {
	Address     string
	Fungible    bool
	BlueprintID *string
	Name        string
	Symbol      string
	Decimals    int
	BaseURI     string
	Image       string
}

// Token is one non-fungible token instance. Fungible contracts have no
// Token rows.
type Token struct {
	ContractAddress string
	TokenID         string // decimal big.Int
	OwnerStarkKey   *string
	LatestTxHash    string
	AskOrderID      *string
	Nonce           uint64
	Name            string
	Description     string
	Image           string
	TokenURI        string
	AssetMetadata   json.RawMessage
}

// OrderState is a three-way sum type standing in for the SQL-nullable
// "fulfilled" column of the original schema: a limit order is either
// still open (New), was matched (Fulfilled), or was withdrawn
// (Cancelled). Modeling it this way keeps callers from having to reason
// about a nullable bool at the domain layer.
type OrderState int

const (
	OrderNew OrderState = iota
	OrderFulfilled
	OrderCancelled
)

func (s OrderState) String() string {
	switch s {
	case OrderFulfilled:
		return "fulfilled"
	case OrderCancelled:
		return "cancelled"
	default:
		return "new"
	}
}

// LimitOrder is a standing bid or ask on the order book.
type LimitOrder struct {
	OrderID         string // decimal big.Int
	UserStarkKey    string
	Bid             bool // true = bid (buying the token with quote), false = ask
	ContractAddress string
	TokenID         string
	QuoteContract   string
	QuoteAmount     string // decimal big.Int
	TxHash          string
	ClosedTxHash    *string
	Fulfilled       OrderState
}

// ParseFieldElement parses a decimal or 0x-prefixed hex field element.
// Every field element in this system is arbitrary precision (the STARK
// prime is ~252 bits), so plain int64/uint64 would silently truncate.
func ParseFieldElement(s string) (*big.Int, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}
