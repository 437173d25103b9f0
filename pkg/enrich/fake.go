package enrich

import "context"

// FakeMetadataFetcher is a deterministic MetadataFetcher used by
// interpreter tests, the same collaborator-injection shape the teacher
// uses for storage.Store in manager tests: no live HTTP server, just
// canned responses keyed by the requested URI.
type FakeMetadataFetcher struct {
	Responses map[string]*Metadata
	Errors    map[string]error
}

// NewFakeMetadataFetcher returns an empty fetcher; callers populate
// Responses/Errors directly before use.
func NewFakeMetadataFetcher() *FakeMetadataFetcher {
	return &FakeMetadataFetcher{
		Responses: make(map[string]*Metadata),
		Errors:    make(map[string]error),
	}
}

// Fetch returns the canned response or error registered for tokenURI,
// or ErrInvalidMetadata if neither was registered.
func (f *FakeMetadataFetcher) Fetch(_ context.Context, tokenURI string) (*Metadata, error) {
	if err, ok := f.Errors[tokenURI]; ok {
		return nil, err
	}
	if m, ok := f.Responses[tokenURI]; ok {
		return m, nil
	}
	return nil, ErrInvalidMetadata
}
