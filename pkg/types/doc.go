// Package types defines the domain model shared by the crawler,
// interpreter, storage, and signature packages: blocks and transactions
// as seen on L2, and the semantic entities (accounts, contracts,
// blueprints, tokens, limit orders) the interpreter derives from them.
//
// Field elements (STARK keys, token ids, order ids, quote amounts) are
// always decimal strings backed by math/big at the storage boundary,
// never machine integers, since the underlying prime field is wider than
// 64 bits.
package types
