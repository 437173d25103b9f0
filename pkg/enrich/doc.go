// Package enrich fetches and validates off-chain NFT metadata documents
// referenced by a token's token_uri, and folds the subset of fields this
// indexer cares about (name, description, image) onto the Token row
// (§4.7). Fetch failures of any kind — network, decode, schema — are
// absorbed by the caller; this package only ever returns an error to
// signal "no metadata available", never anything the interpreter should
// treat as fatal.
package enrich
