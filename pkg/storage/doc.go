// Package storage implements the block store and semantic store on top
// of an embedded BoltDB file, following one bucket per entity type with
// manual secondary indexes in place of SQL foreign keys and unique
// constraints.
//
// A block and all of its transactions are written inside a single
// Update call, so a crash between them can never leave a block with a
// partial transaction set. The interpreter applies every handler for one
// block the same way: one Update call per (contract, block), rolled back
// whole if any handler returns an error.
package storage
