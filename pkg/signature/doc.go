// Package signature implements the off-chain half of the STARK
// signature scheme described in §4.8 and §9: folding a heterogeneous
// message into a single field element with a right-to-left Pedersen
// hash, and verifying a (r, s) signature against a stark_key. It is
// the only component of this system that touches elliptic-curve
// arithmetic; the Crawler, Interpreter and Semantic Store never import
// it.
package signature
