// Package crawler drives the two frontiers described in spec §4.4: a
// forward cursor that follows the chain tip and a backfill cursor that
// drains history, plus a separate purge pass that repairs reorgs. It is
// the only component that writes Block and Transaction rows, and the
// only writer of StarkContract rows keyed purely by address (the
// interpreter also writes StarkContract, but only its block_counter
// field, never the row's existence).
package crawler
