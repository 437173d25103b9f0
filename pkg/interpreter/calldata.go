package interpreter

import (
	"fmt"
	"math/big"

	"github.com/fluence-xyz/indexer/pkg/types"
)

// decimal parses one calldata field element and returns it normalised
// to its canonical decimal string form (§9: always arbitrary precision,
// never a machine integer, and never compared in mixed hex/decimal
// representations).
func decimal(s string) (string, error) {
	n, ok := types.ParseFieldElement(s)
	if !ok {
		return "", fmt.Errorf("interpreter: %q is not a field element", s)
	}
	return n.String(), nil
}

// decimalInt is like decimal but also returns the parsed *big.Int, for
// callers that need to branch on the value (bid/ask side, contract
// kind).
func decimalInt(s string) (*big.Int, error) {
	n, ok := types.ParseFieldElement(s)
	if !ok {
		return nil, fmt.Errorf("interpreter: %q is not a field element", s)
	}
	return n, nil
}

// take extracts exactly n calldata fields, erroring if the transaction
// carries fewer. Handlers call this first so a malformed transaction
// fails loudly instead of panicking on an out-of-range index.
func take(calldata []string, n int) ([]string, error) {
	if len(calldata) < n {
		return nil, fmt.Errorf("interpreter: expected at least %d calldata fields, got %d", n, len(calldata))
	}
	return calldata[:n], nil
}
