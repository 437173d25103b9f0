package enrich

import (
	"context"
	"encoding/json"
	"errors"
)

// Metadata is the subset of the ERC-721 Metadata JSON Schema this
// indexer folds onto a Token row. The schema marks every field
// optional, but §4.7 treats all three as required for enrichment to
// count as successful — a document missing any of them is rejected
// rather than partially applied.
type Metadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Raw         json.RawMessage `json:"-"`
}

// ErrInvalidMetadata is returned when a fetched document is not valid
// JSON, or is valid JSON missing one of the required string fields.
var ErrInvalidMetadata = errors.New("enrich: invalid metadata document")

// MetadataFetcher is the collaborator boundary §9 asks for: lift_token
// depends on this interface, not on net/http directly, so interpreter
// tests can substitute FakeMetadataFetcher instead of standing up a real
// HTTP server.
type MetadataFetcher interface {
	Fetch(ctx context.Context, tokenURI string) (*Metadata, error)
}

// Validate checks that a decoded document satisfies §4.7's enrichment
// requirement: name, description and image all present and non-empty.
func Validate(m *Metadata) error {
	if m.Name == "" || m.Description == "" || m.Image == "" {
		return ErrInvalidMetadata
	}
	return nil
}
