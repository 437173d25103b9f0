package interpreter

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// mask250 truncates a Keccak-256 digest to the low 250 bits, matching
// the STARK chain's starknet_keccak: entry-point selectors are field
// elements, which live in a field narrower than a full 256-bit hash.
var mask250 = func() *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), 250)
	return m.Sub(m, big.NewInt(1))
}()

// selectorFromName computes the hex entry-point selector for a
// canonical function name exactly as the chain's compiler does:
// starknet_keccak(name) = keccak256(name) & mask250 (§4.5).
func selectorFromName(name string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(name))
	digest := new(big.Int).SetBytes(hash.Sum(nil))
	digest.And(digest, mask250)
	return "0x" + digest.Text(16)
}

// handlerFunc is the shape every dispatch-table entry has: a typed
// handler invoked with the interpreter and the transaction whose
// calldata it should decode itself, per its own arity (§9's design
// note — arity is fixed per selector, not discovered generically).
type handlerFunc func(*Interpreter, *txContext) error

// selectorTable maps the hex selector, computed once at package init,
// to the handler for that entry point. A selector with no entry is
// silently ignored by Tick — the contract may expose entry points this
// indexer doesn't semanticise (§4.5).
var selectorTable map[string]handlerFunc

// selectorNames records the human-readable name for each handled
// selector, used only for metrics/log labels so cardinality stays
// bounded (selectors are opaque hex strings otherwise).
var selectorNames map[string]string

func init() {
	entries := []struct {
		name    string
		handler handlerFunc
	}{
		{"register_contract", (*Interpreter).handleRegisterContract},
		{"register_client", (*Interpreter).handleRegisterClient},
		{"mint", (*Interpreter).handleMint},
		{"withdraw", (*Interpreter).handleWithdraw},
		{"deposit", (*Interpreter).handleDeposit},
		{"transfer", (*Interpreter).handleTransfer},
		{"create_order", (*Interpreter).handleCreateOrder},
		{"fulfill_order", (*Interpreter).handleFulfillOrder},
		{"cancel_order", (*Interpreter).handleCancelOrder},
	}

	selectorTable = make(map[string]handlerFunc, len(entries))
	selectorNames = make(map[string]string, len(entries))
	for _, e := range entries {
		selector := selectorFromName(e.name)
		selectorTable[selector] = e.handler
		selectorNames[selector] = e.name
	}
}
