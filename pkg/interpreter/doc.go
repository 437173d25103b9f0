// Package interpreter replays a contract's transactions in order,
// decoding each one by its entry-point selector into a mutation of the
// semantic store (accounts, token contracts, tokens, limit orders).
// Package interpreter is single-threaded and per-contract: Tick drives
// one contract's block_counter cursor forward by at most one block per
// call (none while it waits on a missing dependency), applying every transaction addressed to that contract within
// that block atomically (§4.6).
package interpreter
